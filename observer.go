package bootevents

import (
	"context"
	"fmt"
	"slices"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// Observer consumes lifecycle events in CloudEvents form. It is the
// integration point for exporters and loggers that do not want to depend on
// the concrete event types.
type Observer interface {
	// OnEvent is called for every event the observer is registered for.
	OnEvent(ctx context.Context, event cloudevents.Event) error

	// ObserverID returns a unique identifier for this observer.
	ObserverID() string
}

// FunctionalObserver provides a simple way to create observers using functions.
type FunctionalObserver struct {
	id      string
	handler func(ctx context.Context, event cloudevents.Event) error
}

// NewFunctionalObserver creates a new observer that uses the provided function
// to handle events.
func NewFunctionalObserver(id string, handler func(ctx context.Context, event cloudevents.Event) error) Observer {
	return &FunctionalObserver{
		id:      id,
		handler: handler,
	}
}

func (f *FunctionalObserver) OnEvent(ctx context.Context, event cloudevents.Event) error {
	return f.handler(ctx, event)
}

func (f *FunctionalObserver) ObserverID() string {
	return f.id
}

// ObserverListener bridges an Observer into the listener registry. Each
// delivered event is converted with ToCloudEvent and validated first.
type ObserverListener struct {
	observer Observer
	kinds    []EventKind
}

// NewObserverListener wraps observer. With no kinds it receives all events.
func NewObserverListener(observer Observer, kinds ...EventKind) *ObserverListener {
	return &ObserverListener{observer: observer, kinds: kinds}
}

func (o *ObserverListener) ListenerID() string {
	return "observer:" + o.observer.ObserverID()
}

func (o *ObserverListener) SupportsEvent(event Event) bool {
	return len(o.kinds) == 0 || slices.Contains(o.kinds, event.Kind())
}

func (o *ObserverListener) OnApplicationEvent(ctx context.Context, event Event) error {
	ce, err := ToCloudEvent(event)
	if err != nil {
		return fmt.Errorf("observer %s: %w", o.observer.ObserverID(), err)
	}
	return o.observer.OnEvent(ctx, ce)
}
