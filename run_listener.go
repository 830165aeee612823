package bootevents

import (
	"cmp"
	"context"
	"slices"
	"time"
)

// RunListener observes one startup attempt of an Application. Hooks are
// called on the bootstrap goroutine in the order
// Starting, EnvironmentPrepared, ContextPrepared, ContextLoaded, Started,
// Ready. Failed may be called at any point after Starting and ends the
// sequence.
type RunListener interface {
	// Starting is called immediately when Run begins.
	Starting(ctx context.Context, bootstrap *BootstrapContext) error

	// EnvironmentPrepared is called once the environment is built, before
	// the application context is created.
	EnvironmentPrepared(ctx context.Context, bootstrap *BootstrapContext, env *Environment) error

	// ContextPrepared is called once the context is created, before it is loaded.
	ContextPrepared(ctx context.Context, appCtx ApplicationContext) error

	// ContextLoaded is called once the context is loaded, before refresh.
	ContextLoaded(ctx context.Context, appCtx ApplicationContext) error

	// Started is called after refresh, before runners.
	Started(ctx context.Context, appCtx ApplicationContext, timeTaken time.Duration) error

	// Ready is called after runners, when the application can serve.
	Ready(ctx context.Context, appCtx ApplicationContext, timeTaken time.Duration) error

	// Failed is called when startup fails. appCtx is nil if the failure
	// happened before the context was created. A returned error is logged by
	// the driver; it never replaces the startup failure.
	Failed(ctx context.Context, appCtx ApplicationContext, err error) error
}

// RunListenerFactory builds a run listener for a startup attempt.
type RunListenerFactory func(app *Application, args []string) RunListener

// runListeners fans each hook out to a fixed, ordered set of run listeners.
// The first error from a listener stops the fan-out and is returned.
type runListeners struct {
	listeners []RunListener
	logger    Logger
}

func newRunListeners(logger Logger, listeners ...RunListener) *runListeners {
	sorted := slices.Clone(listeners)
	slices.SortStableFunc(sorted, func(a, b RunListener) int {
		return cmp.Compare(OrderOf(a), OrderOf(b))
	})
	return &runListeners{listeners: sorted, logger: loggerOrNop(logger)}
}

func (r *runListeners) each(step string, fn func(RunListener) error) error {
	for _, l := range r.listeners {
		if err := fn(l); err != nil {
			r.logger.Debug("Run listener step failed", "step", step, "error", err)
			return err
		}
	}
	return nil
}

func (r *runListeners) Starting(ctx context.Context, bootstrap *BootstrapContext) error {
	return r.each("starting", func(l RunListener) error { return l.Starting(ctx, bootstrap) })
}

func (r *runListeners) EnvironmentPrepared(ctx context.Context, bootstrap *BootstrapContext, env *Environment) error {
	return r.each("environment-prepared", func(l RunListener) error { return l.EnvironmentPrepared(ctx, bootstrap, env) })
}

func (r *runListeners) ContextPrepared(ctx context.Context, appCtx ApplicationContext) error {
	return r.each("context-prepared", func(l RunListener) error { return l.ContextPrepared(ctx, appCtx) })
}

func (r *runListeners) ContextLoaded(ctx context.Context, appCtx ApplicationContext) error {
	return r.each("context-loaded", func(l RunListener) error { return l.ContextLoaded(ctx, appCtx) })
}

func (r *runListeners) Started(ctx context.Context, appCtx ApplicationContext, timeTaken time.Duration) error {
	return r.each("started", func(l RunListener) error { return l.Started(ctx, appCtx, timeTaken) })
}

func (r *runListeners) Ready(ctx context.Context, appCtx ApplicationContext, timeTaken time.Duration) error {
	return r.each("ready", func(l RunListener) error { return l.Ready(ctx, appCtx, timeTaken) })
}

// Failed calls every listener, logging their errors and panics so that one
// broken listener does not hide the startup failure from the rest.
func (r *runListeners) Failed(ctx context.Context, appCtx ApplicationContext, err error) {
	for _, l := range r.listeners {
		func() {
			defer func() {
				if p := recover(); p != nil {
					r.logger.Warn("Error handling failed state", "listener", describeRunListener(l), "panic", p)
				}
			}()
			if ferr := l.Failed(ctx, appCtx, err); ferr != nil {
				r.logger.Warn("Error handling failed state", "listener", describeRunListener(l), "error", ferr)
			}
		}()
	}
}

func describeRunListener(l RunListener) string {
	if named, ok := l.(interface{ Name() string }); ok {
		return named.Name()
	}
	return "run-listener"
}

// RunListenerFuncs can be used to write partial stateless run listeners.
type RunListenerFuncs struct {
	StartingFunc            func(ctx context.Context, bootstrap *BootstrapContext) error
	EnvironmentPreparedFunc func(ctx context.Context, bootstrap *BootstrapContext, env *Environment) error
	ContextPreparedFunc     func(ctx context.Context, appCtx ApplicationContext) error
	ContextLoadedFunc       func(ctx context.Context, appCtx ApplicationContext) error
	StartedFunc             func(ctx context.Context, appCtx ApplicationContext, timeTaken time.Duration) error
	ReadyFunc               func(ctx context.Context, appCtx ApplicationContext, timeTaken time.Duration) error
	FailedFunc              func(ctx context.Context, appCtx ApplicationContext, err error) error
}

func (f RunListenerFuncs) Starting(ctx context.Context, bootstrap *BootstrapContext) error {
	if f.StartingFunc == nil {
		return nil
	}
	return f.StartingFunc(ctx, bootstrap)
}

func (f RunListenerFuncs) EnvironmentPrepared(ctx context.Context, bootstrap *BootstrapContext, env *Environment) error {
	if f.EnvironmentPreparedFunc == nil {
		return nil
	}
	return f.EnvironmentPreparedFunc(ctx, bootstrap, env)
}

func (f RunListenerFuncs) ContextPrepared(ctx context.Context, appCtx ApplicationContext) error {
	if f.ContextPreparedFunc == nil {
		return nil
	}
	return f.ContextPreparedFunc(ctx, appCtx)
}

func (f RunListenerFuncs) ContextLoaded(ctx context.Context, appCtx ApplicationContext) error {
	if f.ContextLoadedFunc == nil {
		return nil
	}
	return f.ContextLoadedFunc(ctx, appCtx)
}

func (f RunListenerFuncs) Started(ctx context.Context, appCtx ApplicationContext, timeTaken time.Duration) error {
	if f.StartedFunc == nil {
		return nil
	}
	return f.StartedFunc(ctx, appCtx, timeTaken)
}

func (f RunListenerFuncs) Ready(ctx context.Context, appCtx ApplicationContext, timeTaken time.Duration) error {
	if f.ReadyFunc == nil {
		return nil
	}
	return f.ReadyFunc(ctx, appCtx, timeTaken)
}

func (f RunListenerFuncs) Failed(ctx context.Context, appCtx ApplicationContext, err error) error {
	if f.FailedFunc == nil {
		return nil
	}
	return f.FailedFunc(ctx, appCtx, err)
}

var _ RunListener = RunListenerFuncs{}
