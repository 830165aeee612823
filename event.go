// Package bootevents publishes application bootstrap lifecycle events.
// A bootstrap driver (Application) calls RunListener hooks as startup
// progresses; EventPublishingRunListener turns each hook into a typed Event
// and delivers it to the registered listeners, first through its own
// multicaster and, once the application context is live, through the context.
package bootevents

import (
	"slices"
	"time"
)

// EventKind identifies an event variant. Values use reverse domain notation so
// they can be used directly as CloudEvents types.
type EventKind string

// Lifecycle event kinds, in the order a successful startup emits them.
const (
	EventKindStarting            EventKind = "com.bootevents.application.starting"
	EventKindEnvironmentPrepared EventKind = "com.bootevents.application.environment_prepared"
	EventKindContextInitialized  EventKind = "com.bootevents.application.context_initialized"
	EventKindPrepared            EventKind = "com.bootevents.application.prepared"
	EventKindStarted             EventKind = "com.bootevents.application.started"
	EventKindReady               EventKind = "com.bootevents.application.ready"
	EventKindFailed              EventKind = "com.bootevents.application.failed"
)

// Events emitted by collaborators rather than by the run listener itself.
const (
	EventKindAvailabilityChange     EventKind = "com.bootevents.availability.changed"
	EventKindContextRefreshed       EventKind = "com.bootevents.context.refreshed"
	EventKindContextClosed          EventKind = "com.bootevents.context.closed"
	EventKindBootstrapContextClosed EventKind = "com.bootevents.bootstrap.closed"
)

// LifecycleEventKinds lists the seven run listener event kinds in emission order.
func LifecycleEventKinds() []EventKind {
	return []EventKind{
		EventKindStarting,
		EventKindEnvironmentPrepared,
		EventKindContextInitialized,
		EventKindPrepared,
		EventKindStarted,
		EventKindReady,
		EventKindFailed,
	}
}

func (k EventKind) String() string {
	return string(k)
}

// Event is anything a Multicaster can deliver.
type Event interface {
	// Kind identifies the event variant.
	Kind() EventKind

	// Source is the object the event originated from.
	Source() any

	// Timestamp is when the event was created.
	Timestamp() time.Time
}

// ApplicationEvent carries the application handle and argument vector shared
// by every lifecycle event. Its source is the application.
type ApplicationEvent struct {
	application *Application
	args        []string
	timestamp   time.Time
}

func newApplicationEvent(app *Application, args []string) ApplicationEvent {
	return ApplicationEvent{
		application: app,
		args:        args,
		timestamp:   time.Now(),
	}
}

// Application returns the application being bootstrapped.
func (e ApplicationEvent) Application() *Application {
	return e.application
}

// Args returns a copy of the startup arguments.
func (e ApplicationEvent) Args() []string {
	return slices.Clone(e.args)
}

// Source returns the application.
func (e ApplicationEvent) Source() any {
	return e.application
}

// Timestamp returns when the event was created.
func (e ApplicationEvent) Timestamp() time.Time {
	return e.timestamp
}

// StartingEvent is published as early as possible, before the environment or
// context exist. Only the bootstrap context is available.
type StartingEvent struct {
	ApplicationEvent
	BootstrapContext *BootstrapContext
}

// NewStartingEvent creates a StartingEvent.
func NewStartingEvent(bootstrap *BootstrapContext, app *Application, args []string) *StartingEvent {
	return &StartingEvent{ApplicationEvent: newApplicationEvent(app, args), BootstrapContext: bootstrap}
}

func (*StartingEvent) Kind() EventKind { return EventKindStarting }

// EnvironmentPreparedEvent is published once the Environment is available
// for inspection and modification, before the context is created.
type EnvironmentPreparedEvent struct {
	ApplicationEvent
	BootstrapContext *BootstrapContext
	Environment      *Environment
}

// NewEnvironmentPreparedEvent creates an EnvironmentPreparedEvent.
func NewEnvironmentPreparedEvent(bootstrap *BootstrapContext, app *Application, args []string, env *Environment) *EnvironmentPreparedEvent {
	return &EnvironmentPreparedEvent{
		ApplicationEvent: newApplicationEvent(app, args),
		BootstrapContext: bootstrap,
		Environment:      env,
	}
}

func (*EnvironmentPreparedEvent) Kind() EventKind { return EventKindEnvironmentPrepared }

// ContextInitializedEvent is published when the application context has been
// created but nothing has been loaded into it.
type ContextInitializedEvent struct {
	ApplicationEvent
	Context ApplicationContext
}

// NewContextInitializedEvent creates a ContextInitializedEvent.
func NewContextInitializedEvent(app *Application, args []string, appCtx ApplicationContext) *ContextInitializedEvent {
	return &ContextInitializedEvent{ApplicationEvent: newApplicationEvent(app, args), Context: appCtx}
}

func (*ContextInitializedEvent) Kind() EventKind { return EventKindContextInitialized }

// PreparedEvent is published when the context is loaded, listeners are
// attached, and it has not been refreshed yet.
type PreparedEvent struct {
	ApplicationEvent
	Context ApplicationContext
}

// NewPreparedEvent creates a PreparedEvent.
func NewPreparedEvent(app *Application, args []string, appCtx ApplicationContext) *PreparedEvent {
	return &PreparedEvent{ApplicationEvent: newApplicationEvent(app, args), Context: appCtx}
}

func (*PreparedEvent) Kind() EventKind { return EventKindPrepared }

// StartedEvent is published after the context is refreshed and before
// runners are called.
type StartedEvent struct {
	ApplicationEvent
	Context   ApplicationContext
	TimeTaken time.Duration
}

// NewStartedEvent creates a StartedEvent.
func NewStartedEvent(app *Application, args []string, appCtx ApplicationContext, timeTaken time.Duration) *StartedEvent {
	return &StartedEvent{ApplicationEvent: newApplicationEvent(app, args), Context: appCtx, TimeTaken: timeTaken}
}

func (*StartedEvent) Kind() EventKind { return EventKindStarted }

// ReadyEvent is published as late as possible, after runners completed, to
// signal the application can service requests.
type ReadyEvent struct {
	ApplicationEvent
	Context   ApplicationContext
	TimeTaken time.Duration
}

// NewReadyEvent creates a ReadyEvent.
func NewReadyEvent(app *Application, args []string, appCtx ApplicationContext, timeTaken time.Duration) *ReadyEvent {
	return &ReadyEvent{ApplicationEvent: newApplicationEvent(app, args), Context: appCtx, TimeTaken: timeTaken}
}

func (*ReadyEvent) Kind() EventKind { return EventKindReady }

// FailedEvent is published when startup fails. Context is nil when the
// failure happened before the context was created.
type FailedEvent struct {
	ApplicationEvent
	Context ApplicationContext
	Err     error
}

// NewFailedEvent creates a FailedEvent.
func NewFailedEvent(app *Application, args []string, appCtx ApplicationContext, err error) *FailedEvent {
	return &FailedEvent{ApplicationEvent: newApplicationEvent(app, args), Context: appCtx, Err: err}
}

func (*FailedEvent) Kind() EventKind { return EventKindFailed }

// ContextEvent is the base for events raised by an application context.
// Its source is the context.
type ContextEvent struct {
	context   ApplicationContext
	timestamp time.Time
}

// Context returns the context that raised the event.
func (e ContextEvent) Context() ApplicationContext {
	return e.context
}

func (e ContextEvent) Source() any {
	return e.context
}

func (e ContextEvent) Timestamp() time.Time {
	return e.timestamp
}

// ContextRefreshedEvent is published when a context becomes active.
type ContextRefreshedEvent struct {
	ContextEvent
}

func (*ContextRefreshedEvent) Kind() EventKind { return EventKindContextRefreshed }

// ContextClosedEvent is published when a context is closed.
type ContextClosedEvent struct {
	ContextEvent
}

func (*ContextClosedEvent) Kind() EventKind { return EventKindContextClosed }
