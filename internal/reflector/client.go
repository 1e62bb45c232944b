// Package reflector is the reflector core (spec.md §4.5): the client table,
// the single-threaded core loop, talker-change reaction, QSY handling, and
// the TCP/UDP transport glue that feeds it. It is the generalization of the
// teacher's per-actor "one mailbox, one goroutine" runtime
// (network/handler/stateful/actor.go) to a single mailbox owning every piece
// of reflector-wide mutable state, rather than one mailbox per entity —
// required by spec.md §5's "no internal locking on shared state" rule.
package reflector

import (
	"net"
	"time"

	"golang.org/x/time/rate"

	"github.com/sm0svx/svxreflector-go/internal/protocol"
)

// State is a client session's position in the connection state machine
// (spec.md §3 / §4.3).
type State int

const (
	StateListening State = iota
	StateExpectAuthResponse
	StateConnected
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateListening:
		return "LISTENING"
	case StateExpectAuthResponse:
		return "EXPECT_AUTH_RESPONSE"
	case StateConnected:
		return "CONNECTED"
	case StateDisconnected:
		return "DISCONNECTED"
	default:
		return "UNKNOWN"
	}
}

// Client is the reflector's view of one connected node (spec.md §3). The
// core loop is its only mutator; everything else only ever holds a
// *Client back-reference, never ownership.
type Client struct {
	id       uint32
	callsign string
	state    State

	protoVer    protocol.ProtoVer
	tcpRemote   *net.TCPAddr
	udpAddr     *net.UDPAddr // nil until the first UDP datagram is latched
	udpSeqNext  uint16
	udpSeqOut   uint16

	nonce          []byte
	derivedSecret  []byte

	currentTG    uint32
	monitoredTGs map[uint32]struct{}

	connectedAt time.Time
	lastTCPSeen time.Time
	lastUDPSeen time.Time

	conn net.Conn
	out  chan frameOut // outbound control frames, drained by the write goroutine

	recvLimiter *rate.Limiter // bounds inbound control-frame rate; see tcp.go
}

// frameOut is one outbound control-plane frame queued for a client's writer
// goroutine.
type frameOut struct {
	typ  protocol.MsgType
	body []byte
}

// ID satisfies registry.ClientRef.
func (c *Client) ID() uint32 { return c.id }

// Callsign returns the authenticated callsign, or "" pre-auth.
func (c *Client) Callsign() string { return c.callsign }

// ProtoVer returns the client's negotiated protocol version.
func (c *Client) ProtoVer() protocol.ProtoVer { return c.protoVer }

// State returns the current connection state.
func (c *Client) State() State { return c.state }

// CurrentTG returns the talkgroup this client currently belongs to, 0 if
// none.
func (c *Client) CurrentTG() uint32 { return c.currentTG }

// Monitors reports whether tg is in this client's monitor set.
func (c *Client) Monitors(tg uint32) bool {
	_, ok := c.monitoredTGs[tg]
	return ok
}

// IsV1 / IsV2Plus classify the client's protocol-version policy class
// (spec.md §4.3).
func (c *Client) IsV1() bool     { return protocol.IsV1(c.protoVer) }
func (c *Client) IsV2Plus() bool { return protocol.IsV2Plus(c.protoVer) }

// send enqueues an outbound control frame. Never blocks the core loop: the
// per-client writer goroutine owns the socket, so a slow peer backs up its
// own channel rather than the reflector core (same back-pressure boundary
// as the teacher's tcpctx send channel).
func (c *Client) send(typ protocol.MsgType, body []byte) {
	select {
	case c.out <- frameOut{typ: typ, body: body}:
	default:
		// Outbound queue full: the client is too slow to keep up. Drop the
		// frame rather than block the core loop; the heartbeat timeout will
		// eventually close a genuinely dead connection.
	}
}

func (c *Client) sendMsg(m protocol.Message) {
	c.send(m.Type(), m.Encode())
}
