package bootevents

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// InstanceSupplier lazily creates a bootstrap instance.
type InstanceSupplier func(b *BootstrapContext) (any, error)

// BootstrapContext is a short-lived registry available from application
// start until the application context is prepared. It lets early listeners
// share expensive objects (clients, loaders) before any container exists.
type BootstrapContext struct {
	mu             sync.Mutex
	suppliers      map[string]InstanceSupplier
	instances      map[string]any
	closeListeners *SimpleMulticaster
	closed         bool
}

// NewBootstrapContext creates an empty bootstrap context.
func NewBootstrapContext() *BootstrapContext {
	return &BootstrapContext{
		suppliers:      make(map[string]InstanceSupplier),
		instances:      make(map[string]any),
		closeListeners: NewSimpleMulticaster(),
	}
}

// Register adds or replaces the supplier for name. Replacing fails once the
// instance has been created.
func (b *BootstrapContext) Register(name string, supplier InstanceSupplier) error {
	if supplier == nil {
		return fmt.Errorf("%w: %s", ErrBootstrapSupplierNil, name)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBootstrapContextClosed
	}
	if _, created := b.instances[name]; created {
		return fmt.Errorf("%w: %s", ErrBootstrapInstanceRegistered, name)
	}
	b.suppliers[name] = supplier
	return nil
}

// RegisterIfAbsent registers supplier only when name is unknown. It reports
// whether the supplier was registered.
func (b *BootstrapContext) RegisterIfAbsent(name string, supplier InstanceSupplier) bool {
	if supplier == nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}
	if _, exists := b.suppliers[name]; exists {
		return false
	}
	b.suppliers[name] = supplier
	return true
}

// RegisterInstance registers an already created instance.
func (b *BootstrapContext) RegisterInstance(name string, instance any) error {
	return b.Register(name, func(*BootstrapContext) (any, error) { return instance, nil })
}

// IsRegistered reports whether a supplier exists for name.
func (b *BootstrapContext) IsRegistered(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, exists := b.suppliers[name]
	return exists
}

// Get returns the instance for name, creating it on first use.
func (b *BootstrapContext) Get(name string) (any, error) {
	b.mu.Lock()
	if instance, ok := b.instances[name]; ok {
		b.mu.Unlock()
		return instance, nil
	}
	supplier, ok := b.suppliers[name]
	b.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBootstrapInstanceNotFound, name)
	}

	// suppliers may call Get for their own dependencies
	instance, err := supplier(b)
	if err != nil {
		return nil, fmt.Errorf("bootstrap instance %s: %w", name, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if existing, ok := b.instances[name]; ok {
		return existing, nil
	}
	b.instances[name] = instance
	return instance, nil
}

// GetOrElse returns the instance for name, or other when it is not registered
// or cannot be created.
func (b *BootstrapContext) GetOrElse(name string, other any) any {
	instance, err := b.Get(name)
	if err != nil {
		return other
	}
	return instance
}

// BootstrapInstance returns the instance for name as a T.
func BootstrapInstance[T any](b *BootstrapContext, name string) (T, error) {
	var zero T
	instance, err := b.Get(name)
	if err != nil {
		return zero, err
	}
	typed, ok := instance.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s is %T, not %T", ErrPropertyConversion, name, instance, zero)
	}
	return typed, nil
}

// AddCloseListener registers a listener notified with a
// BootstrapContextClosedEvent when the context is closed.
func (b *BootstrapContext) AddCloseListener(l Listener) {
	b.closeListeners.AddListener(l)
}

// Close marks the bootstrap context closed and notifies close listeners.
// Listener errors propagate to the caller.
func (b *BootstrapContext) Close(ctx context.Context, appCtx ApplicationContext) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	return b.closeListeners.MulticastEvent(ctx, &BootstrapContextClosedEvent{
		BootstrapContext: b,
		Context:          appCtx,
		timestamp:        time.Now(),
	})
}

// BootstrapContextClosedEvent is published to bootstrap close listeners
// once the application context has been prepared.
type BootstrapContextClosedEvent struct {
	BootstrapContext *BootstrapContext
	Context          ApplicationContext
	timestamp        time.Time
}

func (*BootstrapContextClosedEvent) Kind() EventKind { return EventKindBootstrapContextClosed }

func (e *BootstrapContextClosedEvent) Source() any { return e.BootstrapContext }

func (e *BootstrapContextClosedEvent) Timestamp() time.Time { return e.timestamp }
