package bootevents

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
)

type logger struct {
	t *testing.T
}

func (l *logger) Info(msg string, args ...any) {
	l.t.Log(fmt.Sprintf("[INFO] %s", msg), args)
}

func (l *logger) Error(msg string, args ...any) {
	l.t.Log(fmt.Sprintf("[ERROR] %s", msg), args)
}

func (l *logger) Warn(msg string, args ...any) {
	l.t.Log(fmt.Sprintf("[WARN] %s", msg), args)
}

func (l *logger) Debug(msg string, args ...any) {
	l.t.Log(fmt.Sprintf("[DEBUG] %s", msg), args)
}

// MockLogger
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(msg string, args ...interface{}) {
	m.Called(msg, args)
}

func (m *MockLogger) Info(msg string, args ...interface{}) {
	m.Called(msg, args)
}

func (m *MockLogger) Warn(msg string, args ...interface{}) {
	m.Called(msg, args)
}

func (m *MockLogger) Error(msg string, args ...interface{}) {
	m.Called(msg, args)
}

// quietMockLogger returns a MockLogger that accepts any Debug/Info/Error
// call, so tests only need to set expectations on Warn.
func quietMockLogger() *MockLogger {
	m := &MockLogger{}
	m.On("Debug", mock.Anything, mock.Anything).Maybe()
	m.On("Info", mock.Anything, mock.Anything).Maybe()
	m.On("Error", mock.Anything, mock.Anything).Maybe()
	return m
}

// recordingListener stores every event it receives.
type recordingListener struct {
	id     string
	mu     sync.Mutex
	events []Event
	err    error
}

func newRecordingListener(id string) *recordingListener {
	return &recordingListener{id: id}
}

func (r *recordingListener) ListenerID() string { return r.id }

func (r *recordingListener) OnApplicationEvent(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.err
}

func (r *recordingListener) received() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *recordingListener) kinds() []EventKind {
	var kinds []EventKind
	for _, e := range r.received() {
		kinds = append(kinds, e.Kind())
	}
	return kinds
}

func (r *recordingListener) count(kind EventKind) int {
	n := 0
	for _, e := range r.received() {
		if e.Kind() == kind {
			n++
		}
	}
	return n
}

// contextAwareListener counts how often it is handed a context.
type contextAwareListener struct {
	*recordingListener
	contexts []ApplicationContext
}

func (c *contextAwareListener) SetApplicationContext(appCtx ApplicationContext) {
	c.contexts = append(c.contexts, appCtx)
}

// stubContext is an ApplicationContext whose activity is set by the test.
type stubContext struct {
	id         string
	active     bool
	published  []Event
	listeners  []Listener
	publishErr error
	// deliver routes published events to the registered listeners.
	deliver bool
}

func (s *stubContext) ID() string                { return s.id }
func (s *stubContext) Environment() *Environment { return nil }
func (s *stubContext) IsActive() bool            { return s.active }

func (s *stubContext) PublishEvent(ctx context.Context, event Event) error {
	s.published = append(s.published, event)
	if s.publishErr != nil {
		return s.publishErr
	}
	if s.deliver {
		return NewSimpleMulticaster(s.listeners...).MulticastEvent(ctx, event)
	}
	return nil
}

func (s *stubContext) ApplicationListeners() []Listener {
	return append([]Listener(nil), s.listeners...)
}

func (s *stubContext) AddApplicationListener(l Listener) {
	s.listeners = append(s.listeners, l)
}

func (s *stubContext) publishedKinds() []EventKind {
	var kinds []EventKind
	for _, e := range s.published {
		kinds = append(kinds, e.Kind())
	}
	return kinds
}
