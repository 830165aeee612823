package bootevents

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"
)

// PropertyFeeder supplies a flat property map for the Environment.
// Implementations live in the feeders package.
type PropertyFeeder interface {
	Name() string
	Feed() (map[string]any, error)
}

// Runner is called once the context has started and before the application
// is reported ready.
type Runner interface {
	Run(ctx context.Context, args []string) error
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, args []string) error

func (f RunnerFunc) Run(ctx context.Context, args []string) error {
	return f(ctx, args)
}

// ContextInitializer customizes the context after it is created and before
// ContextPrepared is published.
type ContextInitializer func(appCtx ConfigurableContext) error

// Application drives one or more startup attempts. It owns the listener
// registry that EventPublishingRunListener reads.
type Application struct {
	name   string
	logger Logger

	mu                   sync.RWMutex
	listeners            []Listener
	runListenerFactories []RunListenerFactory
	feeders              []PropertyFeeder
	initializers         []ContextInitializer
	runners              []Runner
	defaultProperties    map[string]any
	contextFactory       ContextFactory
	availability         *AvailabilityTracker
}

// NewApplication creates an application. An AvailabilityTracker is always
// registered as a listener.
func NewApplication(logger Logger, options ...ApplicationOption) *Application {
	app := &Application{
		name:              "application",
		logger:            loggerOrNop(logger),
		defaultProperties: make(map[string]any),
		contextFactory:    DefaultContextFactory,
		availability:      NewAvailabilityTracker(),
	}
	app.listeners = append(app.listeners, app.availability)

	for _, option := range options {
		if err := option(app); err != nil {
			app.logger.Error("Failed to apply application option", "error", err)
		}
	}
	return app
}

// Name returns the application name.
func (app *Application) Name() string {
	return app.name
}

// Logger returns the application logger.
func (app *Application) Logger() Logger {
	return app.logger
}

// Listeners returns a snapshot of the registered listeners.
func (app *Application) Listeners() []Listener {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return slices.Clone(app.listeners)
}

// AddListeners registers listeners. Listeners added after a run listener was
// created are not seen by that run listener's initial multicaster.
func (app *Application) AddListeners(listeners ...Listener) {
	app.mu.Lock()
	defer app.mu.Unlock()
	for _, l := range listeners {
		if l != nil {
			app.listeners = append(app.listeners, l)
		}
	}
}

// Availability returns the tracker fed by availability change events.
func (app *Application) Availability() *AvailabilityTracker {
	return app.availability
}

// Run performs one startup attempt. On success it returns the active
// context; the caller is responsible for closing it. On failure run
// listeners are notified, any created context is closed, and the error is
// returned wrapped in ErrStartupFailed.
func (app *Application) Run(ctx context.Context, args ...string) (ConfigurableContext, error) {
	if app == nil {
		return nil, ErrApplicationNil
	}
	startedAt := time.Now()
	bootstrap := NewBootstrapContext()
	listeners := app.newRunListeners(args)

	var appCtx ConfigurableContext
	fail := func(err error) (ConfigurableContext, error) {
		app.handleRunFailure(ctx, appCtx, listeners, err)
		return nil, fmt.Errorf("%w: %w", ErrStartupFailed, err)
	}

	if err := listeners.Starting(ctx, bootstrap); err != nil {
		return fail(err)
	}

	env, err := app.prepareEnvironment(ctx, listeners, bootstrap, args)
	if err != nil {
		return fail(err)
	}

	appCtx = app.contextFactory(env, app.logger)
	if err := app.prepareContext(ctx, listeners, bootstrap, appCtx); err != nil {
		return fail(err)
	}

	if err := appCtx.Refresh(ctx); err != nil {
		return fail(err)
	}

	timeTaken := time.Since(startedAt)
	app.logger.Info("Started application", "name", app.name, "context", appCtx.ID(), "timeTaken", timeTaken)
	if err := listeners.Started(ctx, appCtx, timeTaken); err != nil {
		return fail(err)
	}

	if err := app.callRunners(ctx, args); err != nil {
		return fail(err)
	}

	if err := listeners.Ready(ctx, appCtx, time.Since(startedAt)); err != nil {
		return fail(err)
	}
	return appCtx, nil
}

func (app *Application) newRunListeners(args []string) *runListeners {
	app.mu.RLock()
	factories := slices.Clone(app.runListenerFactories)
	app.mu.RUnlock()

	all := []RunListener{NewEventPublishingRunListener(app, args)}
	for _, factory := range factories {
		if l := factory(app, args); l != nil {
			all = append(all, l)
		}
	}
	return newRunListeners(app.logger, all...)
}

func (app *Application) prepareEnvironment(ctx context.Context, listeners *runListeners, bootstrap *BootstrapContext, args []string) (*Environment, error) {
	app.mu.RLock()
	feeders := slices.Clone(app.feeders)
	defaults := maps.Clone(app.defaultProperties)
	app.mu.RUnlock()

	env := NewEnvironment()
	if len(args) > 0 {
		env.AddFirst(CommandLinePropertySource(args))
	}
	for _, feeder := range feeders {
		props, err := feeder.Feed()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrFeederFailed, feeder.Name(), err)
		}
		env.AddLast(PropertySource{Name: feeder.Name(), Properties: props})
		app.logger.Debug("Added property source", "source", feeder.Name(), "properties", len(props))
	}
	if _, ok := defaults[PropertyApplicationName]; !ok {
		defaults[PropertyApplicationName] = app.name
	}
	env.AddLast(PropertySource{Name: "defaultProperties", Properties: defaults})

	if err := listeners.EnvironmentPrepared(ctx, bootstrap, env); err != nil {
		return nil, err
	}
	return env, nil
}

func (app *Application) prepareContext(ctx context.Context, listeners *runListeners, bootstrap *BootstrapContext, appCtx ConfigurableContext) error {
	app.mu.RLock()
	initializers := slices.Clone(app.initializers)
	app.mu.RUnlock()

	for _, initialize := range initializers {
		if err := initialize(appCtx); err != nil {
			return fmt.Errorf("context initializer: %w", err)
		}
	}
	if err := listeners.ContextPrepared(ctx, appCtx); err != nil {
		return err
	}
	if err := bootstrap.Close(ctx, appCtx); err != nil {
		return err
	}
	return listeners.ContextLoaded(ctx, appCtx)
}

func (app *Application) callRunners(ctx context.Context, args []string) error {
	app.mu.RLock()
	runners := slices.Clone(app.runners)
	app.mu.RUnlock()

	slices.SortStableFunc(runners, func(a, b Runner) int {
		return cmp.Compare(OrderOf(a), OrderOf(b))
	})
	for i, runner := range runners {
		if err := runner.Run(ctx, args); err != nil {
			return fmt.Errorf("%w: runner %d: %w", ErrRunnerFailed, i, err)
		}
	}
	return nil
}

func (app *Application) handleRunFailure(ctx context.Context, appCtx ConfigurableContext, listeners *runListeners, err error) {
	app.logger.Error("Application run failed", "name", app.name, "error", err)

	if appCtx == nil {
		listeners.Failed(ctx, nil, err)
		return
	}
	listeners.Failed(ctx, appCtx, err)
	if cerr := appCtx.Close(ctx); cerr != nil {
		app.logger.Warn("Unable to close application context", "context", appCtx.ID(), "error", cerr)
	}
}
