package bootevents

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ApplicationContext is the runtime container. Once active it owns its own
// multicaster and listener set.
type ApplicationContext interface {
	// ID returns the context identifier.
	ID() string

	// Environment returns the environment the context was created with.
	Environment() *Environment

	// PublishEvent delivers event to the context's listeners.
	PublishEvent(ctx context.Context, event Event) error

	// IsActive reports whether the context has been refreshed and not closed.
	IsActive() bool

	// ApplicationListeners returns the listeners registered with the context.
	// It is safe to call on an inactive context.
	ApplicationListeners() []Listener

	// AddApplicationListener registers a listener with the context.
	AddApplicationListener(l Listener)
}

// ConfigurableContext is an ApplicationContext whose lifecycle the bootstrap
// driver controls.
type ConfigurableContext interface {
	ApplicationContext
	Refresh(ctx context.Context) error
	Close(ctx context.Context) error
}

// ContextFactory creates the application context for a run.
type ContextFactory func(env *Environment, logger Logger) ConfigurableContext

type contextState int

const (
	contextCreated contextState = iota
	contextActive
	contextClosed
)

func (s contextState) String() string {
	switch s {
	case contextCreated:
		return "created"
	case contextActive:
		return "active"
	case contextClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// GenericContext is the default ConfigurableContext. Events published before
// Refresh are held and delivered when the context becomes active.
type GenericContext struct {
	id          string
	env         *Environment
	logger      Logger
	multicaster *SimpleMulticaster

	mu          sync.Mutex
	state       contextState
	earlyEvents []Event
	refreshedAt time.Time
}

// NewGenericContext creates an inactive context.
func NewGenericContext(id string, env *Environment, logger Logger) *GenericContext {
	return &GenericContext{
		id:          id,
		env:         env,
		logger:      loggerOrNop(logger),
		multicaster: NewSimpleMulticaster(),
		state:       contextCreated,
	}
}

// DefaultContextFactory creates a GenericContext named after the
// "app.name" property, falling back to "application".
func DefaultContextFactory(env *Environment, logger Logger) ConfigurableContext {
	id := "application"
	if env != nil {
		id = env.GetStringDefault("app.name", id)
	}
	return NewGenericContext(id, env, logger)
}

func (c *GenericContext) ID() string {
	return c.id
}

func (c *GenericContext) Environment() *Environment {
	return c.env
}

func (c *GenericContext) IsActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == contextActive
}

// RefreshedAt returns when the context became active, or the zero time.
func (c *GenericContext) RefreshedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshedAt
}

func (c *GenericContext) ApplicationListeners() []Listener {
	return c.multicaster.Listeners()
}

func (c *GenericContext) AddApplicationListener(l Listener) {
	c.multicaster.AddListener(l)
}

func (c *GenericContext) PublishEvent(ctx context.Context, event Event) error {
	if event == nil {
		return ErrEventNil
	}

	c.mu.Lock()
	switch c.state {
	case contextClosed:
		c.mu.Unlock()
		return fmt.Errorf("%w: cannot publish %s", ErrContextClosed, event.Kind())
	case contextCreated:
		c.earlyEvents = append(c.earlyEvents, event)
		c.mu.Unlock()
		c.logger.Debug("Deferred event until context refresh", "context", c.id, "event", event.Kind())
		return nil
	}
	c.mu.Unlock()

	return c.multicaster.MulticastEvent(ctx, event)
}

// Refresh activates the context, delivers deferred events and publishes a
// ContextRefreshedEvent. If delivery fails the context is left inactive.
func (c *GenericContext) Refresh(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case contextClosed:
		c.mu.Unlock()
		return ErrContextClosed
	case contextActive:
		c.mu.Unlock()
		return ErrContextAlreadyActive
	}
	c.state = contextActive
	c.refreshedAt = time.Now()
	early := c.earlyEvents
	c.earlyEvents = nil
	c.mu.Unlock()

	for _, event := range early {
		if err := c.multicaster.MulticastEvent(ctx, event); err != nil {
			c.cancelRefresh()
			return fmt.Errorf("context %s refresh: %w", c.id, err)
		}
	}

	refreshed := &ContextRefreshedEvent{ContextEvent{context: c, timestamp: time.Now()}}
	if err := c.multicaster.MulticastEvent(ctx, refreshed); err != nil {
		c.cancelRefresh()
		return fmt.Errorf("context %s refresh: %w", c.id, err)
	}

	c.logger.Info("Application context refreshed", "context", c.id, "listeners", len(c.ApplicationListeners()))
	return nil
}

func (c *GenericContext) cancelRefresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == contextActive {
		c.state = contextCreated
	}
}

// Close publishes a ContextClosedEvent if the context is active and marks it
// closed. Listener errors are logged. Closing twice is a no-op.
func (c *GenericContext) Close(ctx context.Context) error {
	c.mu.Lock()
	prev := c.state
	c.state = contextClosed
	c.earlyEvents = nil
	c.mu.Unlock()
	c.logger.Debug("Closing application context", "context", c.id, "state", prev.String())

	if prev != contextActive {
		return nil
	}

	closed := &ContextClosedEvent{ContextEvent{context: c, timestamp: time.Now()}}
	if err := c.multicaster.MulticastEvent(ctx, closed); err != nil {
		c.logger.Warn("Error publishing context closed event", "context", c.id, "error", err)
	}
	c.logger.Info("Application context closed", "context", c.id)
	return nil
}
