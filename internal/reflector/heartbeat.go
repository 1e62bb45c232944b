package reflector

import (
	"time"

	"github.com/sm0svx/svxreflector-go/internal/protocol"
)

// heartbeatInterval / heartbeatMaxMissed implement spec.md §4.3's default
// heartbeat policy. Neither is configurable via SPEC_FULL.md's recognized
// key table, so they stay as package constants rather than Config fields.
const (
	heartbeatInterval  = 10 * time.Second
	heartbeatMaxMissed = 3
)

// handleTick drives the squelch timer and the per-client heartbeat
// liveness check on every scheduler tick (spec.md §4.2, §4.3).
func (c *Core) handleTick(now time.Time) {
	c.registry.Tick(now)

	timeout := heartbeatInterval * heartbeatMaxMissed
	for _, client := range c.clients {
		if client.state != StateConnected {
			continue
		}
		lastSeen := client.lastTCPSeen
		if client.lastUDPSeen.After(lastSeen) {
			lastSeen = client.lastUDPSeen
		}
		if now.Sub(lastSeen) >= timeout {
			client.conn.Close()
			continue
		}
		if c.sendUDP != nil && now.Sub(client.lastUDPSeen) >= heartbeatInterval {
			c.sendUDP(client, protocol.EncodeUDP(protocol.UDPDatagram{
				Type:     protocol.MsgUdpHeartbeat,
				ClientID: client.id,
				Seq:      client.udpSeqOut,
			}))
		}
	}
}
