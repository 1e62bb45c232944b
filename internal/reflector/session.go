package reflector

import (
	"github.com/sm0svx/svxreflector-go/internal/auth"
	"github.com/sm0svx/svxreflector-go/internal/log"
	"github.com/sm0svx/svxreflector-go/internal/metrics"
	"github.com/sm0svx/svxreflector-go/internal/protocol"
)

// handleAuthPhaseFrame processes frames received before a client reaches
// CONNECTED (spec.md §4.3): a ProtoVer announcement followed by an
// AuthResponse.
func (c *Core) handleAuthPhaseFrame(client *Client, typ protocol.MsgType, body []byte) {
	switch typ {
	case protocol.MsgProtoVer:
		m := &protocol.ProtoVerMsg{}
		if err := m.Decode(body); err != nil {
			return
		}
		client.protoVer = protocol.ProtoVer{Major: m.Major, Minor: m.Minor}

	case protocol.MsgAuthResponse:
		m := &protocol.AuthResponseMsg{}
		if err := m.Decode(body); err != nil {
			return
		}
		c.handleAuthResponse(client, m.Callsign, m.Digest)
	}
}

func (c *Core) handleAuthResponse(client *Client, callsign string, digest []byte) {
	secret, known := c.cfg.AuthKeys[callsign]
	if !known || !auth.Verify([]byte(secret), client.nonce, digest) {
		metrics.AuthFailuresTotal.Inc()
		client.sendMsg(&protocol.ErrorMsg{Text: "Access denied"})
		client.conn.Close()
		return
	}

	if _, taken := c.byCallsign[callsign]; taken {
		// Duplicate callsign: close the *new* session, leaving the existing
		// one untouched (spec.md §4.3).
		client.sendMsg(&protocol.ErrorMsg{Text: "Callsign already connected"})
		client.conn.Close()
		return
	}

	derived, err := auth.DeriveSessionSecret([]byte(secret), client.nonce, 32)
	if err != nil {
		log.Default().Error().Err(err).Str("callsign", callsign).Msg("deriving session secret failed")
		client.sendMsg(&protocol.ErrorMsg{Text: "Internal error"})
		client.conn.Close()
		return
	}
	client.derivedSecret = derived

	client.callsign = callsign
	client.state = StateConnected
	c.byCallsign[callsign] = client
	metrics.ConnectionsActive.Inc()

	if protocol.IsV1(client.protoVer) {
		c.registry.Join(client, c.cfg.TGForV1Clients)
		client.currentTG = c.cfg.TGForV1Clients
	}

	client.sendMsg(&protocol.AuthOkMsg{})
	c.broadcast(&protocol.NodeJoinedMsg{Callsign: callsign}, Except(client))
}

// handleConnectedFrame dispatches the command set available once a client
// is CONNECTED (spec.md §4.3 "Commands while CONNECTED").
func (c *Core) handleConnectedFrame(client *Client, typ protocol.MsgType, body []byte) {
	switch typ {
	case protocol.MsgSelectTG:
		m := &protocol.SelectTGMsg{}
		if err := m.Decode(body); err != nil {
			return
		}
		if client.IsV1() {
			return // V1 clients have a fixed TG; ignored per spec.
		}
		c.registry.Join(client, m.TG)
		client.currentTG = m.TG

	case protocol.MsgTGMonitor:
		m := &protocol.TGMonitorMsg{}
		if err := m.Decode(body); err != nil {
			return
		}
		if client.IsV1() {
			return
		}
		set := make(map[uint32]struct{}, len(m.TGs))
		for _, tg := range m.TGs {
			set[tg] = struct{}{}
		}
		client.monitoredTGs = set

	case protocol.MsgRequestQsy:
		m := &protocol.RequestQsyMsg{}
		if err := m.Decode(body); err != nil {
			return
		}
		c.RequestQsy(client, m.TG)

	case protocol.MsgNodeList:
		nodes := make([]string, 0, len(c.byCallsign))
		for call := range c.byCallsign {
			nodes = append(nodes, call)
		}
		client.sendMsg(&protocol.NodeListMsg{Nodes: nodes})
	}
}
