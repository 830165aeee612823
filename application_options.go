package bootevents

import (
	"errors"
	"fmt"
	"maps"
)

// ApplicationOption represents a configuration option for the application
type ApplicationOption func(*Application) error

var errEmptyApplicationName = errors.New("application name is empty")

// WithName sets the application name, also exposed as the app.name default
// property.
func WithName(name string) ApplicationOption {
	return func(app *Application) error {
		if name == "" {
			return errEmptyApplicationName
		}
		app.name = name
		return nil
	}
}

// WithListeners registers application event listeners.
func WithListeners(listeners ...Listener) ApplicationOption {
	return func(app *Application) error {
		for i, l := range listeners {
			if l == nil {
				return fmt.Errorf("%w: position %d", ErrListenerNil, i)
			}
		}
		app.AddListeners(listeners...)
		return nil
	}
}

// WithRunListeners adds run listener factories. The event publishing run
// listener is always present and does not need to be added.
func WithRunListeners(factories ...RunListenerFactory) ApplicationOption {
	return func(app *Application) error {
		app.runListenerFactories = append(app.runListenerFactories, factories...)
		return nil
	}
}

// WithFeeders adds property feeders. Earlier feeders take precedence.
func WithFeeders(feeders ...PropertyFeeder) ApplicationOption {
	return func(app *Application) error {
		app.feeders = append(app.feeders, feeders...)
		return nil
	}
}

// WithDefaultProperties sets properties with the lowest precedence.
func WithDefaultProperties(props map[string]any) ApplicationOption {
	return func(app *Application) error {
		maps.Copy(app.defaultProperties, props)
		return nil
	}
}

// WithContextFactory replaces DefaultContextFactory.
func WithContextFactory(factory ContextFactory) ApplicationOption {
	return func(app *Application) error {
		if factory == nil {
			return fmt.Errorf("%w: context factory", ErrApplicationContextNil)
		}
		app.contextFactory = factory
		return nil
	}
}

// WithInitializers adds context initializers.
func WithInitializers(initializers ...ContextInitializer) ApplicationOption {
	return func(app *Application) error {
		app.initializers = append(app.initializers, initializers...)
		return nil
	}
}

// WithRunners adds runners called between the started and ready phases.
func WithRunners(runners ...Runner) ApplicationOption {
	return func(app *Application) error {
		app.runners = append(app.runners, runners...)
		return nil
	}
}
