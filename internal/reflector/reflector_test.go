package reflector

import (
	"net"
	"testing"
	"time"

	"github.com/sm0svx/svxreflector-go/internal/auth"
	"github.com/sm0svx/svxreflector-go/internal/config"
	"github.com/sm0svx/svxreflector-go/internal/protocol"
)

func newTestCore(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.AuthKeys["SM0SVX"] = "secret1"
	cfg.AuthKeys["SM3ABC"] = "secret2"
	return cfg
}

// acceptTestClient drives handleConnAccepted directly (bypassing the
// network and the Run loop, which are exercised only by construction, not
// by unit tests here) and returns the resulting Client plus its conn pipe
// peer for further frame injection.
func acceptTestClient(t *testing.T, c *Core) (*Client, net.Conn) {
	t.Helper()
	// handleConnAccepted only ever enqueues onto client.out (drained by a
	// writeLoop goroutine in production, not started here); it never writes
	// to the raw conn directly, so a net.Pipe's server half is enough to
	// satisfy Client.conn.Close() calls on the auth-failure paths.
	serverConn, clientConn := net.Pipe()
	reply := make(chan *Client, 1)
	c.handleConnAccepted(&connEvent{conn: serverConn, replyClient: reply})
	client := <-reply
	if client == nil {
		t.Fatal("handleConnAccepted returned a nil client")
	}
	// handleConnAccepted already queued ProtoVer + AuthChallenge; drain them
	// so later drainOne calls see only the frames each test cares about.
	drainOne(t, client)
	drainOne(t, client)
	return client, clientConn
}

func authenticate(t *testing.T, c *Core, client *Client, callsign, secret string, major uint8) {
	t.Helper()
	c.handleAuthPhaseFrame(client, protocol.MsgProtoVer, (&protocol.ProtoVerMsg{Major: major, Minor: 0}).Encode())
	digest := auth.Digest([]byte(secret), client.nonce)
	c.handleAuthPhaseFrame(client, protocol.MsgAuthResponse, (&protocol.AuthResponseMsg{Callsign: callsign, Digest: digest}).Encode())
	if client.state != StateConnected {
		t.Fatalf("client state = %v, want CONNECTED", client.state)
	}
}

func drainOne(t *testing.T, client *Client) frameOut {
	t.Helper()
	select {
	case f := <-client.out:
		return f
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for a frame to %s", client.callsign)
		return frameOut{}
	}
}

func TestAuthSuccessFlow(t *testing.T) {
	c := New(newTestCore(t))
	client, _ := acceptTestClient(t, c)
	authenticate(t, c, client, "SM0SVX", "secret1", 2)

	f := drainOne(t, client) // AuthOk
	if f.typ != protocol.MsgAuthOk {
		t.Fatalf("expected AuthOk, got %s", f.typ)
	}
	if c.byCallsign["SM0SVX"] != client {
		t.Fatal("client not registered by callsign")
	}
}

func TestAuthFailureWrongDigest(t *testing.T) {
	c := New(newTestCore(t))
	client, clientConn := acceptTestClient(t, c)
	defer clientConn.Close()

	c.handleAuthPhaseFrame(client, protocol.MsgProtoVer, (&protocol.ProtoVerMsg{Major: 2, Minor: 0}).Encode())
	c.handleAuthPhaseFrame(client, protocol.MsgAuthResponse, (&protocol.AuthResponseMsg{Callsign: "SM0SVX", Digest: []byte("wrong")}).Encode())

	f := drainOne(t, client)
	if f.typ != protocol.MsgError {
		t.Fatalf("expected Error, got %s", f.typ)
	}
	if client.state == StateConnected {
		t.Fatal("client should not reach CONNECTED on auth failure")
	}
}

func TestDuplicateCallsignRejectsNewSession(t *testing.T) {
	c := New(newTestCore(t))
	first, _ := acceptTestClient(t, c)
	authenticate(t, c, first, "SM0SVX", "secret1", 2)
	drainOne(t, first) // AuthOk

	second, secondConn := acceptTestClient(t, c)
	defer secondConn.Close()
	c.handleAuthPhaseFrame(second, protocol.MsgProtoVer, (&protocol.ProtoVerMsg{Major: 2, Minor: 0}).Encode())
	digest := auth.Digest([]byte("secret1"), second.nonce)
	c.handleAuthPhaseFrame(second, protocol.MsgAuthResponse, (&protocol.AuthResponseMsg{Callsign: "SM0SVX", Digest: digest}).Encode())

	f := drainOne(t, second)
	if f.typ != protocol.MsgError {
		t.Fatalf("expected Error for duplicate callsign, got %s", f.typ)
	}
	if c.byCallsign["SM0SVX"] != first {
		t.Fatal("the original session must remain registered")
	}
}

func TestTalkerStartBroadcastsToV2Member(t *testing.T) {
	c := New(newTestCore(t))
	cfg := c.cfg
	cfg.TGForV1Clients = 1

	a, _ := acceptTestClient(t, c)
	authenticate(t, c, a, "SM0SVX", "secret1", 2)
	drainOne(t, a) // AuthOk

	b, _ := acceptTestClient(t, c)
	authenticate(t, c, b, "SM3ABC", "secret2", 2)
	drainOne(t, b) // AuthOk
	drainOne(t, a) // NodeJoined(SM3ABC) seen by A

	c.registry.Join(a, 100)
	a.currentTG = 100
	c.registry.Join(b, 100)
	b.currentTG = 100

	c.registry.SetTalker(100, a, true, time.Now())

	f := drainOne(t, b)
	if f.typ != protocol.MsgTalkerStart {
		t.Fatalf("expected TalkerStart, got %s", f.typ)
	}
	m := &protocol.TalkerStartMsg{}
	if err := m.Decode(f.body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.TG != 100 || m.Callsign != "SM0SVX" {
		t.Fatalf("got %+v", m)
	}
}

func TestRequestQsyBroadcastsToCallerCurrentTG(t *testing.T) {
	c := New(newTestCore(t))
	c.cfg.RandomQSYLo, c.cfg.RandomQSYHi = 0, 0 // disabled pool; use explicit tg

	a, _ := acceptTestClient(t, c)
	authenticate(t, c, a, "SM0SVX", "secret1", 2)
	drainOne(t, a) // AuthOk

	b, _ := acceptTestClient(t, c)
	authenticate(t, c, b, "SM3ABC", "secret2", 2)
	drainOne(t, b) // AuthOk
	drainOne(t, a) // NodeJoined seen by A

	c.registry.Join(a, 500)
	a.currentTG = 500
	c.registry.Join(b, 500)
	b.currentTG = 500

	c.RequestQsy(a, 1000)

	f := drainOne(t, a)
	if f.typ != protocol.MsgRequestQsy {
		t.Fatalf("expected RequestQsy, got %s", f.typ)
	}
	m := &protocol.RequestQsyMsg{}
	m.Decode(f.body)
	if m.TG != 1000 {
		t.Fatalf("tg = %d, want 1000", m.TG)
	}
}

func TestV1ClientIgnoresSelectTG(t *testing.T) {
	c := New(newTestCore(t))
	client, _ := acceptTestClient(t, c)
	authenticate(t, c, client, "SM0SVX", "secret1", 1)
	drainOne(t, client) // AuthOk

	if client.currentTG != c.cfg.TGForV1Clients {
		t.Fatalf("v1 client should auto-join tg_for_v1_clients, got %d", client.currentTG)
	}

	c.handleConnectedFrame(client, protocol.MsgSelectTG, (&protocol.SelectTGMsg{TG: 42}).Encode())
	if client.currentTG != c.cfg.TGForV1Clients {
		t.Fatalf("v1 client's TG changed despite SelectTG, now %d", client.currentTG)
	}
}

func TestNodeListReturnsConnectedCallsigns(t *testing.T) {
	c := New(newTestCore(t))
	a, _ := acceptTestClient(t, c)
	authenticate(t, c, a, "SM0SVX", "secret1", 2)
	drainOne(t, a) // AuthOk

	c.handleConnectedFrame(a, protocol.MsgNodeList, nil)
	f := drainOne(t, a)
	if f.typ != protocol.MsgNodeList {
		t.Fatalf("expected NodeList, got %s", f.typ)
	}
	m := &protocol.NodeListMsg{}
	m.Decode(f.body)
	if len(m.Nodes) != 1 || m.Nodes[0] != "SM0SVX" {
		t.Fatalf("got %+v", m.Nodes)
	}
}
