package bootevents

import (
	"context"
	"fmt"
	"slices"
	"time"
)

// deliveryState selects where an event is delivered.
type deliveryState int

const (
	// stateNoContext delivers through the run listener's own multicaster.
	stateNoContext deliveryState = iota
	// stateActiveContext delivers through the application context.
	stateActiveContext
)

func (s deliveryState) String() string {
	if s == stateActiveContext {
		return "active-context"
	}
	return "no-context"
}

// EventPublishingRunListener is the RunListener that publishes lifecycle
// events. Events fired before the context is refreshed go through an initial
// multicaster seeded with the application's listeners; later events go
// through the context itself.
type EventPublishingRunListener struct {
	application        *Application
	args               []string
	initialMulticaster *SimpleMulticaster
	logger             Logger
}

// NewEventPublishingRunListener creates the run listener for one startup
// attempt of app. Every listener app knows at this point is added to the
// initial multicaster.
func NewEventPublishingRunListener(app *Application, args []string) *EventPublishingRunListener {
	l := &EventPublishingRunListener{
		application:        app,
		args:               slices.Clone(args),
		initialMulticaster: NewSimpleMulticaster(),
		logger:             NopLogger{},
	}
	if app != nil {
		l.logger = loggerOrNop(app.Logger())
		for _, listener := range app.Listeners() {
			l.initialMulticaster.AddListener(listener)
		}
	}
	return l
}

// Name identifies the run listener in logs.
func (l *EventPublishingRunListener) Name() string {
	return "event-publishing"
}

// Order is 0 so this listener runs before other run listeners, which default
// to LowestPrecedence.
func (l *EventPublishingRunListener) Order() int {
	return 0
}

func (l *EventPublishingRunListener) Starting(ctx context.Context, bootstrap *BootstrapContext) error {
	return l.initialMulticaster.MulticastEvent(ctx, NewStartingEvent(bootstrap, l.application, l.args))
}

func (l *EventPublishingRunListener) EnvironmentPrepared(ctx context.Context, bootstrap *BootstrapContext, env *Environment) error {
	return l.initialMulticaster.MulticastEvent(ctx,
		NewEnvironmentPreparedEvent(bootstrap, l.application, l.args, env))
}

func (l *EventPublishingRunListener) ContextPrepared(ctx context.Context, appCtx ApplicationContext) error {
	return l.initialMulticaster.MulticastEvent(ctx, NewContextInitializedEvent(l.application, l.args, appCtx))
}

// ContextLoaded copies the application's listeners into appCtx, handing the
// context to context-aware listeners first, then publishes a PreparedEvent
// through the initial multicaster.
func (l *EventPublishingRunListener) ContextLoaded(ctx context.Context, appCtx ApplicationContext) error {
	if appCtx == nil {
		return fmt.Errorf("context loaded: %w", ErrApplicationContextNil)
	}

	var listeners []Listener
	if l.application != nil {
		listeners = l.application.Listeners()
	}
	for _, listener := range listeners {
		if setContext, ok := ContextAwareness(listener); ok {
			setContext(appCtx)
		}
		appCtx.AddApplicationListener(listener)
	}
	l.logger.Debug("Attached listeners to application context", "context", appCtx.ID(), "count", len(listeners))

	return l.initialMulticaster.MulticastEvent(ctx, NewPreparedEvent(l.application, l.args, appCtx))
}

// Started publishes a StartedEvent and a LivenessCorrect availability change
// through appCtx, which must be active.
func (l *EventPublishingRunListener) Started(ctx context.Context, appCtx ApplicationContext, timeTaken time.Duration) error {
	if err := l.requireActive("started", appCtx); err != nil {
		return err
	}
	if err := appCtx.PublishEvent(ctx, NewStartedEvent(l.application, l.args, appCtx, timeTaken)); err != nil {
		return err
	}
	return PublishAvailabilityChange(ctx, appCtx, LivenessCorrect)
}

// Ready publishes a ReadyEvent and a ReadinessAcceptingTraffic availability
// change through appCtx, which must be active.
func (l *EventPublishingRunListener) Ready(ctx context.Context, appCtx ApplicationContext, timeTaken time.Duration) error {
	if err := l.requireActive("ready", appCtx); err != nil {
		return err
	}
	if err := appCtx.PublishEvent(ctx, NewReadyEvent(l.application, l.args, appCtx, timeTaken)); err != nil {
		return err
	}
	return PublishAvailabilityChange(ctx, appCtx, ReadinessAcceptingTraffic)
}

// Failed publishes a FailedEvent. An active context publishes it itself and
// listener errors are returned. Otherwise the context may not be able to
// deliver events, so its listeners are added to the initial multicaster,
// which delivers the event with a LoggingErrorHandler installed: listener
// errors are logged and Failed returns nil.
func (l *EventPublishingRunListener) Failed(ctx context.Context, appCtx ApplicationContext, err error) error {
	event := NewFailedEvent(l.application, l.args, appCtx, err)

	state := l.stateFor(appCtx)
	l.logger.Debug("Publishing application failed event", "delivery", state.String(), "error", err)

	switch state {
	case stateActiveContext:
		return appCtx.PublishEvent(ctx, event)
	default:
		if appCtx != nil {
			for _, listener := range appCtx.ApplicationListeners() {
				l.initialMulticaster.AddListener(listener)
			}
		}
		l.initialMulticaster.SetErrorHandler(NewLoggingErrorHandler(l.logger))
		return l.initialMulticaster.MulticastEvent(ctx, event)
	}
}

func (l *EventPublishingRunListener) stateFor(appCtx ApplicationContext) deliveryState {
	if appCtx != nil && appCtx.IsActive() {
		return stateActiveContext
	}
	return stateNoContext
}

func (l *EventPublishingRunListener) requireActive(step string, appCtx ApplicationContext) error {
	if appCtx == nil {
		return fmt.Errorf("%s: %w", step, ErrApplicationContextNil)
	}
	if l.stateFor(appCtx) != stateActiveContext {
		return fmt.Errorf("%s: %w: %s", step, ErrContextNotActive, appCtx.ID())
	}
	return nil
}

var (
	_ RunListener = (*EventPublishingRunListener)(nil)
	_ Ordered     = (*EventPublishingRunListener)(nil)
)
