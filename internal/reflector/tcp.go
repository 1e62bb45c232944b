package reflector

import (
	"net"
	"time"

	"golang.org/x/net/netutil"
	"golang.org/x/time/rate"

	"github.com/sm0svx/svxreflector-go/internal/auth"
	"github.com/sm0svx/svxreflector-go/internal/log"
	"github.com/sm0svx/svxreflector-go/internal/metrics"
	"github.com/sm0svx/svxreflector-go/internal/protocol"
)

// controlFrameRateLimit bounds a single client's inbound control-plane
// frame rate: a sustained 20/s with bursts to 40 comfortably covers
// SelectTG/TGMonitor/RequestQsy/NodeList chatter while still catching a
// runaway or hostile peer (grounded in the teacher's
// network/dispatcher/dispatcher_recv_limit.go token-bucket limiter, which
// uses the same golang.org/x/time/rate primitive).
const (
	controlFrameRateLimit = 20
	controlFrameBurst     = 40
)

// connEvent carries everything a TCP-plane coreEvent needs. conn always
// identifies the connection; replyClient is only set on the accept event,
// which the core loop uses to hand the new *Client straight back to the
// accepting goroutine — no separate waiter table is needed.
type connEvent struct {
	conn   net.Conn
	remote *net.TCPAddr

	typ  protocol.MsgType
	body []byte

	reason string

	replyClient chan *Client
}

// ListenAndServeTCP accepts connections on addr, optionally capped at
// cfg.MaxClients via golang.org/x/net/netutil.LimitListener (the teacher's
// dependency set carries golang.org/x/net; this is the one component of the
// pack that plugs directly into a stdlib net.Listener with no adaptation).
// It blocks until the listener errors or is closed.
func (c *Core) ListenAndServeTCP(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	if c.cfg.MaxClients > 0 {
		ln = netutil.LimitListener(ln, c.cfg.MaxClients)
	}

	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go c.serveConn(conn)
	}
}

// serveConn owns one TCP connection's lifetime: it submits the accept
// event, blocks for the *Client the core loop creates for it, then loops
// reading frames and submitting them, finally submitting a closed event
// when the read loop ends.
func (c *Core) serveConn(conn net.Conn) {
	defer conn.Close()

	remote, _ := conn.RemoteAddr().(*net.TCPAddr)
	metrics.ConnectionsTotal.Inc()

	reply := make(chan *Client, 1)
	c.submit(coreEvent{kind: eventConnAccepted, conn: &connEvent{conn: conn, remote: remote, replyClient: reply}})

	var client *Client
	select {
	case client = <-reply:
	case <-c.done:
		return
	}
	if client == nil {
		return
	}

	go c.writeLoop(conn, client)

	for {
		typ, body, err := protocol.ReadFrame(conn)
		if err != nil {
			c.submit(coreEvent{kind: eventConnClosed, conn: &connEvent{conn: conn, reason: errReason(err)}})
			return
		}
		c.submit(coreEvent{kind: eventConnFrame, conn: &connEvent{conn: conn, typ: typ, body: body}})
	}
}

func (c *Core) writeLoop(conn net.Conn, client *Client) {
	for frame := range client.out {
		if err := protocol.WriteFrame(conn, frame.typ, frame.body); err != nil {
			log.Default().Debug().Str("callsign", client.callsign).Err(err).Msg("write frame failed")
			return
		}
	}
}

func errReason(err error) string {
	if err == nil {
		return "closed"
	}
	return err.Error()
}

// handleConnAccepted runs on the core loop: it allocates a Client, sends
// ProtoVer + AuthChallenge, and hands the Client back to the accepting
// goroutine over ev.replyClient.
func (c *Core) handleConnAccepted(ev *connEvent) {
	id := c.allocID()
	nonce, err := auth.NewNonce()
	if err != nil {
		log.Default().Error().Err(err).Msg("generating auth nonce failed")
		ev.conn.Close()
		ev.replyClient <- nil
		return
	}

	client := &Client{
		id:           id,
		state:        StateListening,
		tcpRemote:    ev.remote,
		nonce:        nonce,
		monitoredTGs: make(map[uint32]struct{}),
		connectedAt:  time.Now(),
		lastTCPSeen:  time.Now(),
		conn:         ev.conn,
		out:          make(chan frameOut, 64),
		recvLimiter:  rate.NewLimiter(controlFrameRateLimit, controlFrameBurst),
	}
	c.clients[id] = client
	c.byConn[ev.conn] = client

	client.sendMsg(&protocol.ProtoVerMsg{Major: protocol.ServerVersion.Major, Minor: protocol.ServerVersion.Minor})
	client.sendMsg(&protocol.AuthChallengeMsg{Nonce: nonce})
	client.state = StateExpectAuthResponse

	ev.replyClient <- client
}

// handleConnFrame dispatches one inbound control frame to the client's
// current session phase.
func (c *Core) handleConnFrame(ev *connEvent) {
	client := c.byConn[ev.conn]
	if client == nil {
		return
	}
	client.lastTCPSeen = time.Now()

	if !client.recvLimiter.Allow() {
		metrics.ControlFramesDroppedTotal.WithLabelValues("rate_limited").Inc()
		return
	}

	switch client.state {
	case StateListening, StateExpectAuthResponse:
		c.handleAuthPhaseFrame(client, ev.typ, ev.body)
	case StateConnected:
		c.handleConnectedFrame(client, ev.typ, ev.body)
	}
}

// handleConnClosed tears a client down: registry leave, NodeLeft broadcast,
// and table removal (spec.md §4.3 "Disconnect"). The actual Client value is
// freed once the last reference (the now-exited goroutines, this map entry)
// is dropped — Go's GC plays the role the original's deferred
// delete_client() task played, with no separate scheduler-tick bookkeeping
// needed.
func (c *Core) handleConnClosed(ev *connEvent) {
	client := c.byConn[ev.conn]
	if client == nil {
		return
	}
	// Leave runs while the client is still in c.clients so that the
	// resulting TalkerStop carries its callsign.
	c.registry.Leave(client)

	delete(c.byConn, ev.conn)
	delete(c.clients, client.id)
	if client.callsign != "" {
		delete(c.byCallsign, client.callsign)
	}

	wasConnected := client.state == StateConnected
	client.state = StateDisconnected
	close(client.out)

	if wasConnected {
		metrics.ConnectionsActive.Dec()
		c.broadcast(&protocol.NodeLeftMsg{Callsign: client.callsign}, Except(client))
	}
}
