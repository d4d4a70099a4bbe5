package feed

import (
	"sync"

	"github.com/rng-ops/gossip/internal/event"
)

// Filter narrows a subscription to events matching every non-nil field
// (§6.2: "by terrain, event type, or target").
type Filter struct {
	Terrain *event.TerrainAddress
	BodyTag *uint64
	Target  *event.TargetRef
}

func (f Filter) matches(ev *event.Event) bool {
	if f.Terrain != nil && *f.Terrain != ev.Terrain {
		return false
	}
	if f.BodyTag != nil && ev.Body.BodyTag() != *f.BodyTag {
		return false
	}
	if f.Target != nil {
		target, ok := targetOf(ev.Body)
		if !ok || target != *f.Target {
			return false
		}
	}
	return true
}

// targetOf extracts the TargetRef a body carries, if any; bodies that name
// no target (Dispute, LinkHint, RuleEndorsement) never match a Target filter.
func targetOf(b event.Body) (event.TargetRef, bool) {
	switch v := b.(type) {
	case *event.ProbeReceipt:
		return v.Target, true
	case *event.BehaviorAttestation:
		return v.Target, true
	default:
		return event.TargetRef{}, false
	}
}

// Delivery is one item handed to a subscriber: either an admitted Event, or
// a Lagged marker reporting how many events were dropped immediately before
// it because the subscriber's queue was full (§6.2: "excess events are
// dropped with a Lagged(n) marker").
type Delivery struct {
	Event  *event.Event
	Lagged uint64
}

type subscriber struct {
	filter Filter

	mu     sync.Mutex
	ch     chan Delivery
	lagged uint64
}

// Subscription is the consumer-facing handle returned by Hub.Subscribe.
type Subscription struct {
	ch     chan Delivery
	cancel func()
}

// C returns the channel deliveries arrive on. It is closed when the
// subscription is closed.
func (s *Subscription) C() <-chan Delivery { return s.ch }

// Close unregisters the subscription and closes its channel.
func (s *Subscription) Close() { s.cancel() }

// Hub fans out admitted events to subscribers per world. The default
// bound mirrors §6.2's "buffered up to a bound" without naming a specific
// number; 256 gives a slow consumer real slack before it starts lagging.
type Hub struct {
	bufSize int

	mu   sync.Mutex
	subs map[event.WorldID]map[*subscriber]struct{}
}

func NewHub(bufSize int) *Hub {
	if bufSize <= 0 {
		bufSize = 256
	}
	return &Hub{bufSize: bufSize, subs: make(map[event.WorldID]map[*subscriber]struct{})}
}

// Subscribe registers a new consumer for world, matching filter.
func (h *Hub) Subscribe(world event.WorldID, filter Filter) *Subscription {
	s := &subscriber{filter: filter, ch: make(chan Delivery, h.bufSize)}

	h.mu.Lock()
	m, ok := h.subs[world]
	if !ok {
		m = make(map[*subscriber]struct{})
		h.subs[world] = m
	}
	m[s] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		delete(h.subs[world], s)
		h.mu.Unlock()
		close(s.ch)
	}
	return &Subscription{ch: s.ch, cancel: cancel}
}

// Publish fans ev out to every matching subscriber of world. Intended to be
// called from within the admission linearizer so subscribers observe events
// in exactly admission order (§5: "order within a single emitter is
// preserved"); every send here is non-blocking, so calling it under the
// store's lock never risks stalling admission on a slow consumer.
func (h *Hub) Publish(world event.WorldID, ev *event.Event) {
	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.subs[world]))
	for s := range h.subs[world] {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	for _, s := range subs {
		if !s.filter.matches(ev) {
			continue
		}
		s.mu.Lock()
		deliver(s, Delivery{Event: ev})
		s.mu.Unlock()
	}
}

// deliver flushes a pending Lagged marker ahead of d if one is owed, then
// attempts d itself; either step that can't fit without blocking just bumps
// the lag counter instead. Callers must hold s.mu.
func deliver(s *subscriber, d Delivery) {
	if s.lagged > 0 {
		select {
		case s.ch <- Delivery{Lagged: s.lagged}:
			s.lagged = 0
		default:
			s.lagged++
			return
		}
	}
	select {
	case s.ch <- d:
	default:
		s.lagged++
	}
}
