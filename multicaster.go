package bootevents

import (
	"cmp"
	"context"
	"slices"
	"sync"
)

// Multicaster delivers one event to every interested listener.
type Multicaster interface {
	// AddListener registers a listener. Registering the same listener
	// instance twice is a no-op; distinct listeners sharing an ID are both kept.
	AddListener(l Listener)

	// Listeners returns the registered listeners in delivery order.
	Listeners() []Listener

	// MulticastEvent delivers event synchronously to every listener that
	// supports it.
	MulticastEvent(ctx context.Context, event Event) error

	// SetErrorHandler installs a handler for listener errors. With a handler
	// installed, listener errors no longer abort delivery.
	SetErrorHandler(handler ErrorHandler)
}

// ErrorHandler receives listener failures intercepted by a Multicaster.
type ErrorHandler interface {
	HandleError(ctx context.Context, err *ListenerError)
}

// ErrorHandlerFunc adapts a function to ErrorHandler.
type ErrorHandlerFunc func(ctx context.Context, err *ListenerError)

func (f ErrorHandlerFunc) HandleError(ctx context.Context, err *ListenerError) {
	f(ctx, err)
}

// LoggingErrorHandler logs listener failures as warnings and suppresses them.
type LoggingErrorHandler struct {
	logger Logger
}

// NewLoggingErrorHandler creates a LoggingErrorHandler writing to logger.
func NewLoggingErrorHandler(logger Logger) *LoggingErrorHandler {
	return &LoggingErrorHandler{logger: loggerOrNop(logger)}
}

func (h *LoggingErrorHandler) HandleError(_ context.Context, err *ListenerError) {
	h.logger.Warn("Error calling application event listener",
		"listener", err.ListenerID, "event", err.EventKind, "error", err)
}

// SimpleMulticaster delivers events synchronously on the caller's goroutine,
// in listener order (see OrderOf), ties broken by registration order.
type SimpleMulticaster struct {
	mu           sync.RWMutex
	listeners    []Listener
	errorHandler ErrorHandler
}

// NewSimpleMulticaster creates a multicaster seeded with listeners.
func NewSimpleMulticaster(listeners ...Listener) *SimpleMulticaster {
	m := &SimpleMulticaster{}
	for _, l := range listeners {
		m.AddListener(l)
	}
	return m
}

func (m *SimpleMulticaster) AddListener(l Listener) {
	if l == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if slices.ContainsFunc(m.listeners, func(existing Listener) bool { return sameListener(existing, l) }) {
		return
	}
	m.listeners = append(m.listeners, l)
	slices.SortStableFunc(m.listeners, func(a, b Listener) int {
		return cmp.Compare(OrderOf(a), OrderOf(b))
	})
}

// sameListener reports whether a and b are the same listener instance.
// Listeners of non-comparable types are never considered equal.
func sameListener(a, b Listener) (same bool) {
	// comparing two values of the same non-comparable type panics
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}

func (m *SimpleMulticaster) Listeners() []Listener {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.listeners)
}

func (m *SimpleMulticaster) SetErrorHandler(handler ErrorHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorHandler = handler
}

func (m *SimpleMulticaster) MulticastEvent(ctx context.Context, event Event) error {
	if event == nil {
		return ErrEventNil
	}

	m.mu.RLock()
	listeners := slices.Clone(m.listeners)
	handler := m.errorHandler
	m.mu.RUnlock()

	for _, l := range listeners {
		if !Supports(l, event) {
			continue
		}
		lerr := invokeListener(ctx, l, event)
		if lerr == nil {
			continue
		}
		if handler == nil {
			return lerr
		}
		handler.HandleError(ctx, lerr)
	}
	return nil
}

// invokeListener calls l and converts both returned errors and panics into
// a *ListenerError.
func invokeListener(ctx context.Context, l Listener, event Event) (lerr *ListenerError) {
	defer func() {
		if r := recover(); r != nil {
			lerr = &ListenerError{ListenerID: l.ListenerID(), EventKind: event.Kind(), Panic: r}
		}
	}()

	if err := l.OnApplicationEvent(ctx, event); err != nil {
		return &ListenerError{ListenerID: l.ListenerID(), EventKind: event.Kind(), Err: err}
	}
	return nil
}
