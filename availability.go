package bootevents

import (
	"context"
	"sync"
	"time"
)

// AvailabilityState is a liveness or readiness state.
type AvailabilityState interface {
	availabilityState()
	String() string
}

// LivenessState tells whether the application's internal state is valid.
type LivenessState string

const (
	LivenessCorrect LivenessState = "CORRECT"
	LivenessBroken  LivenessState = "BROKEN"
)

func (LivenessState) availabilityState() {}
func (s LivenessState) String() string  { return string(s) }

// ReadinessState tells whether the application is ready to accept traffic.
type ReadinessState string

const (
	ReadinessAcceptingTraffic ReadinessState = "ACCEPTING_TRAFFIC"
	ReadinessRefusingTraffic  ReadinessState = "REFUSING_TRAFFIC"
)

func (ReadinessState) availabilityState() {}
func (s ReadinessState) String() string  { return string(s) }

// AvailabilityChangeEvent signals a liveness or readiness transition.
type AvailabilityChangeEvent struct {
	source    any
	State     AvailabilityState
	timestamp time.Time
}

// NewAvailabilityChangeEvent creates an AvailabilityChangeEvent.
func NewAvailabilityChangeEvent(source any, state AvailabilityState) *AvailabilityChangeEvent {
	return &AvailabilityChangeEvent{source: source, State: state, timestamp: time.Now()}
}

func (*AvailabilityChangeEvent) Kind() EventKind { return EventKindAvailabilityChange }

func (e *AvailabilityChangeEvent) Source() any { return e.source }

func (e *AvailabilityChangeEvent) Timestamp() time.Time { return e.timestamp }

// PublishAvailabilityChange publishes state through appCtx, using the
// context as the event source.
func PublishAvailabilityChange(ctx context.Context, appCtx ApplicationContext, state AvailabilityState) error {
	if appCtx == nil {
		return ErrApplicationContextNil
	}
	return appCtx.PublishEvent(ctx, NewAvailabilityChangeEvent(appCtx, state))
}

// AvailabilityTrackerID is the listener ID of the tracker the Application
// registers by default.
const AvailabilityTrackerID = "bootevents.availability"

// AvailabilityTracker listens for AvailabilityChangeEvents and remembers the
// latest liveness and readiness states. Before any event it reports
// LivenessBroken and ReadinessRefusingTraffic.
type AvailabilityTracker struct {
	mu        sync.RWMutex
	liveness  LivenessState
	readiness ReadinessState
	changedAt map[string]time.Time
}

// NewAvailabilityTracker creates a tracker in its initial state.
func NewAvailabilityTracker() *AvailabilityTracker {
	return &AvailabilityTracker{
		liveness:  LivenessBroken,
		readiness: ReadinessRefusingTraffic,
		changedAt: make(map[string]time.Time),
	}
}

func (t *AvailabilityTracker) ListenerID() string {
	return AvailabilityTrackerID
}

func (t *AvailabilityTracker) SupportsEvent(event Event) bool {
	return event.Kind() == EventKindAvailabilityChange
}

func (t *AvailabilityTracker) OnApplicationEvent(_ context.Context, event Event) error {
	change, ok := event.(*AvailabilityChangeEvent)
	if !ok {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	switch state := change.State.(type) {
	case LivenessState:
		t.liveness = state
		t.changedAt["liveness"] = change.Timestamp()
	case ReadinessState:
		t.readiness = state
		t.changedAt["readiness"] = change.Timestamp()
	}
	return nil
}

// Liveness returns the latest liveness state.
func (t *AvailabilityTracker) Liveness() LivenessState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.liveness
}

// Readiness returns the latest readiness state.
func (t *AvailabilityTracker) Readiness() ReadinessState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.readiness
}

// LastChange returns when the "liveness" or "readiness" state last changed.
func (t *AvailabilityTracker) LastChange(kind string) (time.Time, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	at, ok := t.changedAt[kind]
	return at, ok
}
