// Package signal implements the in-process event bus that change
// notifications travel over: a map of subscriber callbacks keyed by change
// kind, delivered synchronously on the mutating goroutine. Keeping dispatch
// synchronous (rather than the buffered worker-pool shape a generic
// broadcaster would use) is what lets the outbound replication relay build
// and send its peer message inside the same call stack as the mutation,
// and lets echo suppression rely on the Origin carried by the event instead
// of thread-local state.
package signal

import (
	"log/slog"
	"sync"
)

// Kind identifies the change that produced an Event.
type Kind string

// Origin describes the peer and zone that caused a mutation. A nil Origin
// means the mutation originated locally on this endpoint.
type Origin struct {
	EndpointName string
	ZoneName     string
}

// Event is published on the bus whenever a tracked object field changes.
type Event struct {
	Kind   Kind
	Type   string // registry type name, e.g. "Host"
	Name   string // fully-qualified object name
	Path   string // dotted attribute path, set for ModifyAttribute-driven changes
	Old    any
	New    any
	Origin *Origin
}

// Handler reacts to an Event. Handlers must not block for long: they run
// synchronously on the caller that mutated the object.
type Handler func(Event)

// Bus is a process-wide (or test-scoped) event bus keyed by change kind.
// It is passed explicitly into constructors rather than reached via a
// package-level singleton, so tests can wire an isolated Bus per case.
type Bus struct {
	mu     sync.RWMutex
	subs   map[Kind]map[uint64]Handler
	nextID uint64
	logger *slog.Logger
}

// NewBus creates an empty Bus.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		subs:   make(map[Kind]map[uint64]Handler),
		logger: logger.With("component", "signal_bus"),
	}
}

// Subscribe registers h for events of the given kind and returns a function
// that removes the subscription.
func (b *Bus) Subscribe(kind Kind, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[kind] == nil {
		b.subs[kind] = make(map[uint64]Handler)
	}
	b.nextID++
	id := b.nextID
	b.subs[kind][id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[kind], id)
	}
}

// Emit delivers e to every current subscriber of e.Kind, synchronously, in
// the order subscriptions were registered is not guaranteed. Subscribers
// are snapshotted under the read lock so a handler that subscribes or
// unsubscribes does not deadlock or see a torn view.
func (b *Bus) Emit(e Event) {
	b.mu.RLock()
	kindSubs := b.subs[e.Kind]
	handlers := make([]Handler, 0, len(kindSubs))
	for _, h := range kindSubs {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(e)
	}
}
