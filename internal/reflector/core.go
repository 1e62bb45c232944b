package reflector

import (
	"net"
	"time"

	"github.com/sm0svx/svxreflector-go/internal/config"
	"github.com/sm0svx/svxreflector-go/internal/event"
	"github.com/sm0svx/svxreflector-go/internal/metrics"
	"github.com/sm0svx/svxreflector-go/internal/protocol"
	"github.com/sm0svx/svxreflector-go/internal/registry"
)

// Core owns every piece of reflector-wide mutable state: the client table,
// the TG registry, and the QSY pool. It is touched exclusively from the
// run() goroutine started by Run — every other goroutine in the process
// (per-connection readers, the UDP reader, the status handler) only ever
// reaches it by sending a coreEvent (spec.md §5).
type Core struct {
	cfg *config.Config

	clients      map[uint32]*Client
	byCallsign   map[string]*Client
	byConn       map[net.Conn]*Client
	nextClientID uint32

	registry *registry.Registry[*Client]
	qsy      qsyPool

	events chan coreEvent
	done   chan struct{}

	sendUDP func(c *Client, payload []byte)
}

// coreEvent is the single mailbox message type the core loop consumes.
// Exactly one of the fields is meaningful per event, mirroring the
// teacher's actorRuntime pkgMsg/timer/stop union
// (network/handler/stateful/actor.go).
type coreEvent struct {
	kind coreEventKind

	conn      *connEvent
	udp       *udpEvent
	tick      time.Time
	statusReq chan Snapshot
}

type coreEventKind int

const (
	eventConnAccepted coreEventKind = iota
	eventConnFrame
	eventConnClosed
	eventUDPDatagram
	eventTick
	eventStatusRequest
)

// New constructs a Core. It does not start the run loop; call Run in its
// own goroutine.
func New(cfg *config.Config) *Core {
	c := &Core{
		cfg:        cfg,
		clients:    make(map[uint32]*Client),
		byCallsign: make(map[string]*Client),
		byConn:     make(map[net.Conn]*Client),
		qsy:        newQsyPool(cfg.RandomQSYLo, cfg.RandomQSYHi),
		events:     make(chan coreEvent, 256),
		done:       make(chan struct{}),
	}
	topic := &event.TalkerTopic{}
	c.registry = registry.New[*Client](
		time.Duration(cfg.SQLTimeoutSec)*time.Second,
		time.Duration(cfg.SQLTimeoutBlockSec)*time.Second,
		topic,
	)
	topic.Subscribe(c.onTalkerChanged)
	return c
}

// Run is the core loop: it owns every field on Core and must run on exactly
// one goroutine for the process lifetime.
func (c *Core) Run() {
	defer close(c.done)
	for ev := range c.events {
		switch ev.kind {
		case eventConnAccepted:
			c.handleConnAccepted(ev.conn)
		case eventConnFrame:
			c.handleConnFrame(ev.conn)
		case eventConnClosed:
			c.handleConnClosed(ev.conn)
		case eventUDPDatagram:
			c.handleUDPDatagram(ev.udp)
		case eventTick:
			c.handleTick(ev.tick)
		case eventStatusRequest:
			ev.statusReq <- c.snapshot()
		}
		metrics.CoreQueueDepth.Set(float64(len(c.events)))
	}
}

// Stop closes the event channel, letting Run drain and return.
func (c *Core) Stop() {
	close(c.events)
	<-c.done
}

// submit enqueues an event from any goroutine. Producers (TCP readers, the
// UDP reader, the ticker) never touch Core state directly.
func (c *Core) submit(ev coreEvent) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

// RequestStatus round-trips a snapshot read through the core loop so the
// status HTTP handler never touches Core fields directly (spec.md §4.6 "Reads
// are snapshots taken without blocking session processing").
func (c *Core) RequestStatus() Snapshot {
	reply := make(chan Snapshot, 1)
	c.submit(coreEvent{kind: eventStatusRequest, statusReq: reply})
	select {
	case snap := <-reply:
		return snap
	case <-c.done:
		return Snapshot{}
	}
}

// Tick submits a periodic scheduler tick, driving the squelch timer
// (spec.md §4.2) and heartbeat-timeout checks (spec.md §4.3).
func (c *Core) Tick(now time.Time) {
	c.submit(coreEvent{kind: eventTick, tick: now})
}

func (c *Core) allocID() uint32 {
	c.nextClientID++
	return c.nextClientID
}

// broadcast sends m to every CONNECTED client for which filter is true
// (spec.md §4.5).
func (c *Core) broadcast(m protocol.Message, filter Filter) {
	typ, body := m.Type(), m.Encode()
	for _, cl := range c.clients {
		if cl.state != StateConnected {
			continue
		}
		if filter(cl) {
			cl.send(typ, body)
		}
	}
}
