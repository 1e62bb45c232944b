package reflector

import (
	"net"
	"time"

	"golang.org/x/sys/unix"

	"github.com/sm0svx/svxreflector-go/internal/log"
	"github.com/sm0svx/svxreflector-go/internal/metrics"
	"github.com/sm0svx/svxreflector-go/internal/protocol"
)

// udpSocketBufBytes sizes the kernel receive/send buffers for the shared
// audio-plane socket well above the default: one reflector socket carries
// every client's traffic, unlike a typical per-connection UDP socket.
const udpSocketBufBytes = 4 * 1024 * 1024

// tuneUDPBuffers raises SO_RCVBUF/SO_SNDBUF on the reflector's UDP socket.
// Failure is logged, not fatal: the kernel default still works, just with
// more risk of drops under load.
func tuneUDPBuffers(conn *net.UDPConn) {
	raw, err := conn.SyscallConn()
	if err != nil {
		log.Default().Warn().Err(err).Msg("udp socket: SyscallConn unavailable")
		return
	}
	ctrlErr := raw.Control(func(fd uintptr) {
		if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, udpSocketBufBytes); err != nil {
			log.Default().Warn().Err(err).Msg("udp socket: setting SO_RCVBUF failed")
		}
		if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_SNDBUF, udpSocketBufBytes); err != nil {
			log.Default().Warn().Err(err).Msg("udp socket: setting SO_SNDBUF failed")
		}
	})
	if ctrlErr != nil {
		log.Default().Warn().Err(ctrlErr).Msg("udp socket: Control failed")
	}
}

// udpEvent carries one inbound UDP datagram's raw bytes and the address it
// arrived from. Decoding happens on the core loop, not the reader goroutine,
// so a malformed datagram never touches shared state from the wrong
// goroutine.
type udpEvent struct {
	raw  []byte
	addr *net.UDPAddr
}

// ListenAndServeUDP binds a single UDP socket shared by every client
// (spec.md §4.4) and wires Core.sendUDP to it. It blocks until the socket
// errors or is closed.
func (c *Core) ListenAndServeUDP(addr string) error {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return err
	}
	defer conn.Close()
	tuneUDPBuffers(conn)

	c.sendUDP = func(cl *Client, payload []byte) {
		if cl.udpAddr == nil {
			return
		}
		cl.udpSeqOut++
		_, _ = conn.WriteToUDP(payload, cl.udpAddr)
	}

	buf := make([]byte, 64*1024)
	for {
		n, raddr, err := conn.ReadFromUDP(buf)
		if err != nil {
			return err
		}
		raw := make([]byte, n)
		copy(raw, buf[:n])
		c.submit(coreEvent{kind: eventUDPDatagram, udp: &udpEvent{raw: raw, addr: raddr}})
	}
}

// handleUDPDatagram implements spec.md §4.4's per-datagram algorithm.
func (c *Core) handleUDPDatagram(ev *udpEvent) {
	d, err := protocol.DecodeUDP(ev.raw)
	if err != nil {
		metrics.UDPFramesDroppedTotal.WithLabelValues("malformed").Inc()
		return
	}

	client := c.clients[d.ClientID]
	if client == nil {
		metrics.UDPFramesDroppedTotal.WithLabelValues("unknown_client").Inc()
		return
	}

	if !c.validateUDPSource(client, ev.addr) {
		metrics.UDPFramesDroppedTotal.WithLabelValues("source_mismatch").Inc()
		return
	}

	if protocol.IsStaleSeq(client.udpSeqNext, d.Seq) {
		metrics.UDPFramesDroppedTotal.WithLabelValues("stale_seq").Inc()
		return
	}
	if delta := protocol.SeqDelta(client.udpSeqNext, d.Seq); delta > 0 {
		metrics.UDPFramesLostTotal.Add(float64(delta))
	}
	client.udpSeqNext = d.Seq + 1
	client.lastUDPSeen = time.Now()

	switch d.Type {
	case protocol.MsgUdpHeartbeat:
		// liveness only.
	case protocol.MsgUdpAudio:
		c.handleUDPAudio(client, d)
	case protocol.MsgUdpFlushSamples:
		c.handleUDPFlushSamples(client)
	case protocol.MsgUdpAllSamplesFlushed:
		// ignored.
	}
}

// validateUDPSource enforces spec.md §4.4 step 3: the source IP must match
// the client's TCP remote IP. The first valid datagram latches the UDP
// source port and triggers an immediate UdpHeartbeat reply to confirm it.
func (c *Core) validateUDPSource(client *Client, from *net.UDPAddr) bool {
	if client.tcpRemote == nil || !client.tcpRemote.IP.Equal(from.IP) {
		log.Default().Warn().Str("callsign", client.callsign).Msg("udp source IP mismatch")
		return false
	}
	if client.udpAddr == nil {
		client.udpAddr = from
		if c.sendUDP != nil {
			c.sendUDP(client, protocol.EncodeUDP(protocol.UDPDatagram{Type: protocol.MsgUdpHeartbeat, ClientID: client.id, Seq: client.udpSeqOut}))
		}
		return true
	}
	if client.udpAddr.Port != from.Port {
		log.Default().Warn().Str("callsign", client.callsign).Msg("udp source port mismatch")
		return false
	}
	return true
}

// handleUDPAudio implements the talker-seizure and fan-out logic of spec.md
// §4.4 step 5 (UdpAudio).
func (c *Core) handleUDPAudio(client *Client, d protocol.UDPDatagram) {
	now := time.Now()
	c.registry.Tick(now)
	if now.Before(c.registry.BlockedUntil(client)) {
		metrics.UDPFramesDroppedTotal.WithLabelValues("blocked").Inc()
		return
	}

	tg := c.registry.TGOf(client)
	if tg == 0 || len(d.Payload) == 0 {
		metrics.UDPFramesDroppedTotal.WithLabelValues("no_tg_or_empty").Inc()
		return
	}

	if _, hasTalker := c.registry.Talker(tg); !hasTalker {
		c.registry.SetTalker(tg, client, true, now)
	}

	talker, hasTalker := c.registry.Talker(tg)
	if !hasTalker || talker != client {
		metrics.UDPFramesDroppedTotal.WithLabelValues("not_talker").Inc()
		return
	}
	c.registry.SetTalker(tg, client, true, now) // refresh last-audio timestamp

	if c.sendUDP == nil {
		return
	}
	for _, member := range c.registry.Members(tg) {
		if member == client {
			continue
		}
		payload := protocol.EncodeUDP(protocol.UDPDatagram{
			Type:     protocol.MsgUdpAudio,
			ClientID: member.id,
			Seq:      member.udpSeqOut,
			TG:       tg,
			Payload:  d.Payload,
		})
		c.sendUDP(member, payload)
	}
}

// handleUDPFlushSamples implements spec.md §4.4 step 5 (UdpFlushSamples):
// clear the talker if the sender held it, then always acknowledge.
func (c *Core) handleUDPFlushSamples(client *Client) {
	tg := c.registry.TGOf(client)
	if tg != 0 {
		if talker, ok := c.registry.Talker(tg); ok && talker == client {
			c.registry.SetTalker(tg, client, false, time.Now())
		}
	}
	if c.sendUDP != nil {
		c.sendUDP(client, protocol.EncodeUDP(protocol.UDPDatagram{Type: protocol.MsgUdpAllSamplesFlushed, ClientID: client.id, Seq: client.udpSeqOut}))
	}
}
