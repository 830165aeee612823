package bootevents

import (
	"context"
	"math"
	"slices"
)

// Ordering bounds. Lower values run first.
const (
	HighestPrecedence = math.MinInt32
	LowestPrecedence  = math.MaxInt32
)

// Listener receives application events from a Multicaster or an
// ApplicationContext.
type Listener interface {
	// ListenerID returns a unique identifier for this listener.
	// Multicasters use it to avoid registering the same listener twice.
	ListenerID() string

	// OnApplicationEvent handles an event the listener is interested in.
	// A returned error is reported as a ListenerError.
	OnApplicationEvent(ctx context.Context, event Event) error
}

// ContextAware is an optional listener capability: the listener is handed the
// application context before it receives events from it.
type ContextAware interface {
	SetApplicationContext(appCtx ApplicationContext)
}

// EventFilter is an optional listener capability restricting which events
// are delivered. Listeners without it receive every event.
type EventFilter interface {
	SupportsEvent(event Event) bool
}

// Ordered is an optional capability for listeners and run listeners.
type Ordered interface {
	Order() int
}

// ContextAwareness reports whether l accepts the application context and, if
// so, returns the callback that hands it over.
func ContextAwareness(l Listener) (func(ApplicationContext), bool) {
	aware, ok := l.(ContextAware)
	if !ok {
		return nil, false
	}
	return aware.SetApplicationContext, true
}

// Supports reports whether l wants event delivered to it.
func Supports(l Listener, event Event) bool {
	if filter, ok := l.(EventFilter); ok {
		return filter.SupportsEvent(event)
	}
	return true
}

// OrderOf returns the order of v, or LowestPrecedence when v is not Ordered.
func OrderOf(v any) int {
	if o, ok := v.(Ordered); ok {
		return o.Order()
	}
	return LowestPrecedence
}

// FunctionalListener provides a simple way to create listeners from functions.
type FunctionalListener struct {
	id      string
	handler func(ctx context.Context, event Event) error
	kinds   []EventKind
	order   int
}

// NewListener creates a listener that calls handler for every event whose
// kind is in kinds. With no kinds it receives all events.
func NewListener(id string, handler func(ctx context.Context, event Event) error, kinds ...EventKind) *FunctionalListener {
	return &FunctionalListener{
		id:      id,
		handler: handler,
		kinds:   kinds,
		order:   LowestPrecedence,
	}
}

// WithOrder sets the listener order and returns the listener.
func (f *FunctionalListener) WithOrder(order int) *FunctionalListener {
	f.order = order
	return f
}

func (f *FunctionalListener) ListenerID() string {
	return f.id
}

func (f *FunctionalListener) OnApplicationEvent(ctx context.Context, event Event) error {
	return f.handler(ctx, event)
}

func (f *FunctionalListener) SupportsEvent(event Event) bool {
	return len(f.kinds) == 0 || slices.Contains(f.kinds, event.Kind())
}

func (f *FunctionalListener) Order() int {
	return f.order
}

// TypedListener only receives events of type T.
type TypedListener[T Event] struct {
	id      string
	handler func(ctx context.Context, event T) error
}

// NewTypedListener creates a listener for a single event type, for example
//
//	NewTypedListener("ready-hook", func(ctx context.Context, e *ReadyEvent) error { ... })
func NewTypedListener[T Event](id string, handler func(ctx context.Context, event T) error) *TypedListener[T] {
	return &TypedListener[T]{id: id, handler: handler}
}

func (l *TypedListener[T]) ListenerID() string {
	return l.id
}

func (l *TypedListener[T]) SupportsEvent(event Event) bool {
	_, ok := event.(T)
	return ok
}

func (l *TypedListener[T]) OnApplicationEvent(ctx context.Context, event Event) error {
	typed, ok := event.(T)
	if !ok {
		return nil
	}
	return l.handler(ctx, typed)
}
