// Package registry implements the talkgroup registry (spec.md §4.2): TG
// membership, the at-most-one-talker-per-TG invariant, and squelch-timeout
// based talker release. It is generic over the client reference type so it
// has no dependency on the session/reflector packages that own the actual
// Client struct — the same separation the teacher draws between its
// dispatcher (routing) and handler (session state) layers.
package registry

import (
	"time"

	"github.com/sm0svx/svxreflector-go/internal/event"
)

// ClientRef is the identity a registry client reference must expose: a
// stable numeric id for event payloads and logging, plus comparability so
// it can be used directly as a map key (a pointer to the caller's Client
// struct satisfies both).
type ClientRef interface {
	comparable
	ID() uint32
}

// tgState is the registry's bookkeeping for one talkgroup.
type tgState[C ClientRef] struct {
	members   map[C]struct{}
	talker    C
	hasTalker bool
	lastAudio time.Time
}

// Registry holds every talkgroup's membership and talker state. It is not
// safe for concurrent use: the reflector core loop is its only caller
// (spec.md §5).
type Registry[C ClientRef] struct {
	tgs          map[uint32]*tgState[C]
	clientTG     map[C]uint32
	sqlTimeout   time.Duration
	sqlBlockTime time.Duration
	blockedUntil map[C]time.Time
	talkerTopic  *event.TalkerTopic
}

// New constructs a Registry parameterized on the concrete client reference
// type C (typically a pointer to the caller's client struct). sqlTimeout
// <= 0 disables the squelch timer entirely (spec.md §4.2 "provided
// sql_timeout > 0").
func New[C ClientRef](sqlTimeout, sqlBlockTime time.Duration, topic *event.TalkerTopic) *Registry[C] {
	return &Registry[C]{
		tgs:          make(map[uint32]*tgState[C]),
		clientTG:     make(map[C]uint32),
		sqlTimeout:   sqlTimeout,
		sqlBlockTime: sqlBlockTime,
		blockedUntil: make(map[C]time.Time),
		talkerTopic:  topic,
	}
}

func (r *Registry[C]) tg(id uint32) *tgState[C] {
	s, ok := r.tgs[id]
	if !ok {
		s = &tgState[C]{members: make(map[C]struct{})}
		r.tgs[id] = s
	}
	return s
}

// TGOf returns the talkgroup a client currently belongs to, or 0.
func (r *Registry[C]) TGOf(client C) uint32 {
	return r.clientTG[client]
}

// Members returns the current membership set of tg. The returned slice is a
// fresh snapshot safe for the caller to range over while mutating the
// registry.
func (r *Registry[C]) Members(tg uint32) []C {
	s, ok := r.tgs[tg]
	if !ok {
		return nil
	}
	out := make([]C, 0, len(s.members))
	for c := range s.members {
		out = append(out, c)
	}
	return out
}

// Talker returns the current talker of tg and whether one is set.
func (r *Registry[C]) Talker(tg uint32) (C, bool) {
	s, ok := r.tgs[tg]
	if !ok {
		var zero C
		return zero, false
	}
	return s.talker, s.hasTalker
}

// BlockedUntil reports the time before which client is forbidden from
// re-seizing the talker slot after a squelch timeout (spec.md §4.4).
func (r *Registry[C]) BlockedUntil(client C) time.Time {
	return r.blockedUntil[client]
}

// Join removes client from any prior TG and inserts it into tg. TG 0 is the
// "no TG" sentinel (spec.md §3) and is never tracked as a membership set.
func (r *Registry[C]) Join(client C, tg uint32) {
	r.Leave(client)
	if tg == 0 {
		return
	}
	r.tg(tg).members[client] = struct{}{}
	r.clientTG[client] = tg
}

// Leave removes client from its current TG, if any, clearing the talker
// slot and emitting a talker-change event if client was the talker.
func (r *Registry[C]) Leave(client C) {
	prev, ok := r.clientTG[client]
	if !ok || prev == 0 {
		return
	}
	delete(r.clientTG, client)
	s := r.tgs[prev]
	if s == nil {
		return
	}
	delete(s.members, client)
	if s.hasTalker && s.talker == client {
		r.clearTalker(prev, s)
	}
}

// SetTalker assigns tg's talker. A non-null client must already be a member
// of tg; a call that would re-seize the slot before the incumbent's
// squelch-block window elapses is rejected with no effect (spec.md §4.2).
// Pass hasClient=false to clear the talker explicitly.
func (r *Registry[C]) SetTalker(tg uint32, client C, hasClient bool, now time.Time) bool {
	s := r.tg(tg)
	if hasClient {
		if _, isMember := s.members[client]; !isMember {
			return false
		}
		if blocked, ok := r.blockedUntil[client]; ok && now.Before(blocked) {
			return false
		}
	}

	if s.hasTalker == hasClient && (!hasClient || s.talker == client) {
		if hasClient {
			s.lastAudio = now
		}
		return true
	}

	old, hadOld := s.talker, s.hasTalker
	var zero C
	if hasClient {
		s.talker = client
	} else {
		s.talker = zero
	}
	s.hasTalker = hasClient
	if hasClient {
		s.lastAudio = now
	}
	r.publishTalkerChange(tg, old, hadOld, client, hasClient)
	return true
}

// Tick evaluates the squelch timer for every talkgroup with an active
// talker, clearing talkers whose last-audio timestamp is stale. Called on
// every inbound audio frame's TG and on a periodic scheduler tick (spec.md
// §4.2); granularity is the caller's responsibility (<=1s recommended).
func (r *Registry[C]) Tick(now time.Time) {
	if r.sqlTimeout <= 0 {
		return
	}
	for tg, s := range r.tgs {
		if !s.hasTalker {
			continue
		}
		if now.Sub(s.lastAudio) >= r.sqlTimeout {
			r.clearTalkerWithBlock(tg, s, now)
		}
	}
}

func (r *Registry[C]) clearTalker(tg uint32, s *tgState[C]) {
	old, hadOld := s.talker, s.hasTalker
	var zero C
	s.talker = zero
	s.hasTalker = false
	r.publishTalkerChange(tg, old, hadOld, zero, false)
}

func (r *Registry[C]) clearTalkerWithBlock(tg uint32, s *tgState[C], now time.Time) {
	old := s.talker
	r.clearTalker(tg, s)
	if r.sqlBlockTime > 0 {
		r.blockedUntil[old] = now.Add(r.sqlBlockTime)
	}
}

func (r *Registry[C]) publishTalkerChange(tg uint32, old C, hadOld bool, newClient C, hasNew bool) {
	if r.talkerTopic == nil {
		return
	}
	ev := event.TalkerChanged{TG: tg, OldExists: hadOld, NewExists: hasNew}
	if hadOld {
		ev.OldID = old.ID()
	}
	if hasNew {
		ev.NewID = newClient.ID()
	}
	r.talkerTopic.Publish(ev)
}
