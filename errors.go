package bootevents

import (
	"errors"
	"fmt"
)

// Application errors
var (
	// Listener delivery errors
	ErrListenerFailed = errors.New("application event listener failed")
	ErrListenerNil    = errors.New("listener is nil")
	ErrEventNil       = errors.New("event is nil")

	// Application context errors
	ErrApplicationContextNil = errors.New("application context is nil")
	ErrContextNotActive      = errors.New("application context is not active")
	ErrContextClosed         = errors.New("application context is closed")
	ErrContextAlreadyActive  = errors.New("application context already refreshed")

	// Bootstrap context errors
	ErrBootstrapInstanceNotFound   = errors.New("bootstrap instance not found")
	ErrBootstrapInstanceRegistered = errors.New("bootstrap instance already registered")
	ErrBootstrapContextClosed      = errors.New("bootstrap context is closed")
	ErrBootstrapSupplierNil        = errors.New("bootstrap instance supplier is nil")

	// Environment errors
	ErrPropertyNotFound   = errors.New("property not found")
	ErrPropertyConversion = errors.New("property cannot be converted")
	ErrFeederFailed       = errors.New("property feeder failed")

	// Application run errors
	ErrApplicationNil = errors.New("application is nil")
	ErrRunnerFailed   = errors.New("application runner failed")
	ErrStartupFailed  = errors.New("application startup failed")
)

// ListenerError reports a listener that returned an error or panicked while
// handling an event.
type ListenerError struct {
	ListenerID string
	EventKind  EventKind
	Panic      any
	Err        error
}

func (e *ListenerError) Error() string {
	if e.Panic != nil {
		return fmt.Sprintf("%s: listener %q panicked handling %s: %v", ErrListenerFailed, e.ListenerID, e.EventKind, e.Panic)
	}
	return fmt.Sprintf("%s: listener %q handling %s: %v", ErrListenerFailed, e.ListenerID, e.EventKind, e.Err)
}

// Unwrap exposes the listener's own error.
func (e *ListenerError) Unwrap() error {
	return e.Err
}

// Is makes every ListenerError match ErrListenerFailed.
func (e *ListenerError) Is(target error) bool {
	return target == ErrListenerFailed
}
