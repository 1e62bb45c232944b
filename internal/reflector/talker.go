package reflector

import (
	"github.com/sm0svx/svxreflector-go/internal/event"
	"github.com/sm0svx/svxreflector-go/internal/metrics"
	"github.com/sm0svx/svxreflector-go/internal/protocol"
)

// onTalkerChanged is the registry's sole subscriber (spec.md §4.5 "Talker-
// change reaction"). It runs synchronously inside whatever core-loop
// handler triggered the registry mutation, so every resulting broadcast is
// fully enqueued before that handler returns.
func (c *Core) onTalkerChanged(ev event.TalkerChanged) {
	v1TG := c.cfg.TGForV1Clients

	if ev.OldExists {
		old := c.clients[ev.OldID]
		callsign := ""
		if old != nil {
			callsign = old.callsign
		}
		c.broadcast(&protocol.TalkerStopMsg{TG: ev.TG, Callsign: callsign},
			And(isV2Plus(), Or(TGIs(ev.TG), MonitorsTG(ev.TG))))
		if ev.TG == v1TG {
			c.broadcast(&protocol.TalkerStopV1Msg{Callsign: callsign}, isV1())
		}
		c.broadcastFlush(ev.TG, old)
	}

	if ev.NewExists {
		newClient := c.clients[ev.NewID]
		callsign := ""
		if newClient != nil {
			callsign = newClient.callsign
		}
		c.broadcast(&protocol.TalkerStartMsg{TG: ev.TG, Callsign: callsign},
			And(isV2Plus(), Or(TGIs(ev.TG), MonitorsTG(ev.TG))))
		if ev.TG == v1TG {
			c.broadcast(&protocol.TalkerStartV1Msg{Callsign: callsign}, isV1())
		}
	}

	metrics.TalkerChangesTotal.WithLabelValues(u32str(ev.TG)).Inc()
}

// broadcastFlush sends UdpFlushSamples to every other member of tg over the
// UDP plane when a talker is cleared (spec.md §4.5).
func (c *Core) broadcastFlush(tg uint32, except *Client) {
	if c.sendUDP == nil {
		return
	}
	for _, cl := range c.registry.Members(tg) {
		if cl == except {
			continue
		}
		c.sendUDP(cl, protocol.EncodeUDP(protocol.UDPDatagram{
			Type:     protocol.MsgUdpFlushSamples,
			ClientID: cl.id,
			Seq:      cl.udpSeqOut,
		}))
	}
}

// RequestQsy implements spec.md §4.5's requestQsy(client, tg): tg == 0
// allocates from the random pool; any other value is used verbatim. The
// caller's current TG is always the broadcast scope, per spec.
func (c *Core) RequestQsy(client *Client, tg uint32) {
	if tg == 0 {
		allocated, ok := c.qsy.allocate(func(candidate uint32) bool {
			return len(c.registry.Members(candidate)) == 0
		})
		if !ok {
			metrics.QSYExhaustedTotal.Inc()
			return
		}
		tg = allocated
	}

	currentTG := c.registry.TGOf(client)
	c.broadcast(&protocol.RequestQsyMsg{TG: tg}, And(isV2Plus(), TGIs(currentTG)))
}
