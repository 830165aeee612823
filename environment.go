package bootevents

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/golobby/cast"
)

// Well-known property keys.
const (
	PropertyApplicationName = "app.name"
	PropertyActiveProfiles  = "app.profiles.active"
	PropertyNonOptionArgs   = "nonOptionArgs"
)

// CommandLineSourceName is the name of the property source built from
// startup arguments.
const CommandLineSourceName = "commandLineArgs"

// PropertySource is a named set of flat, dot-separated properties.
type PropertySource struct {
	Name       string
	Properties map[string]any
}

// Environment resolves properties from ordered property sources. Earlier
// sources take precedence over later ones.
type Environment struct {
	mu             sync.RWMutex
	sources        []PropertySource
	activeProfiles []string
}

// NewEnvironment creates an environment searching sources in order.
func NewEnvironment(sources ...PropertySource) *Environment {
	return &Environment{sources: slices.Clone(sources)}
}

// AddFirst adds src with the highest precedence, replacing any source with
// the same name.
func (e *Environment) AddFirst(src PropertySource) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sources = slices.DeleteFunc(e.sources, func(s PropertySource) bool { return s.Name == src.Name })
	e.sources = slices.Insert(e.sources, 0, src)
}

// AddLast adds src with the lowest precedence, replacing any source with the
// same name.
func (e *Environment) AddLast(src PropertySource) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sources = slices.DeleteFunc(e.sources, func(s PropertySource) bool { return s.Name == src.Name })
	e.sources = append(e.sources, src)
}

// PropertySourceNames returns source names in precedence order.
func (e *Environment) PropertySourceNames() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.sources))
	for _, s := range e.sources {
		names = append(names, s.Name)
	}
	return names
}

// GetProperty returns the raw value of key from the first source defining it.
func (e *Environment) GetProperty(key string) (any, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, s := range e.sources {
		if v, ok := s.Properties[key]; ok {
			return v, true
		}
	}
	return nil, false
}

// ContainsProperty reports whether any source defines key.
func (e *Environment) ContainsProperty(key string) bool {
	_, ok := e.GetProperty(key)
	return ok
}

// GetString returns key rendered as a string.
func (e *Environment) GetString(key string) (string, error) {
	return Property[string](e, key)
}

// GetStringDefault returns key as a string, or def when it is missing or
// cannot be converted.
func (e *Environment) GetStringDefault(key, def string) string {
	v, err := e.GetString(key)
	if err != nil {
		return def
	}
	return v
}

// GetInt returns key converted to an int.
func (e *Environment) GetInt(key string) (int, error) {
	return Property[int](e, key)
}

// GetBool returns key converted to a bool.
func (e *Environment) GetBool(key string) (bool, error) {
	return Property[bool](e, key)
}

// GetDuration returns key parsed as a time.Duration ("1500ms", "2s").
func (e *Environment) GetDuration(key string) (time.Duration, error) {
	raw, ok := e.GetProperty(key)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrPropertyNotFound, key)
	}
	if d, ok := raw.(time.Duration); ok {
		return d, nil
	}
	d, err := time.ParseDuration(fmt.Sprint(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrPropertyConversion, key, err)
	}
	return d, nil
}

// ActiveProfiles returns the explicitly set profiles, or the comma-separated
// value of app.profiles.active.
func (e *Environment) ActiveProfiles() []string {
	e.mu.RLock()
	explicit := slices.Clone(e.activeProfiles)
	e.mu.RUnlock()
	if len(explicit) > 0 {
		return explicit
	}

	raw, err := e.GetString(PropertyActiveProfiles)
	if err != nil {
		return nil
	}
	var profiles []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			profiles = append(profiles, p)
		}
	}
	return profiles
}

// SetActiveProfiles overrides the profiles taken from properties.
func (e *Environment) SetActiveProfiles(profiles ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.activeProfiles = slices.Clone(profiles)
}

// Property returns key converted to T. String values are converted with
// golobby/cast; values already of type T are returned as is.
func Property[T any](e *Environment, key string) (T, error) {
	var zero T
	raw, ok := e.GetProperty(key)
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrPropertyNotFound, key)
	}
	if typed, ok := raw.(T); ok {
		return typed, nil
	}

	converted, err := cast.FromType(fmt.Sprint(raw), reflect.TypeOf(zero))
	if err != nil {
		return zero, fmt.Errorf("%w: %s: %w", ErrPropertyConversion, key, err)
	}
	typed, ok := converted.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s: got %T", ErrPropertyConversion, key, converted)
	}
	return typed, nil
}

// CommandLinePropertySource parses "--key=value" and "--flag" arguments.
// Flags without a value are set to "true"; other arguments are collected,
// comma-separated, under nonOptionArgs.
func CommandLinePropertySource(args []string) PropertySource {
	props := make(map[string]any)
	var nonOption []string
	for _, arg := range args {
		name, ok := strings.CutPrefix(arg, "--")
		if !ok || name == "" {
			nonOption = append(nonOption, arg)
			continue
		}
		key, value, hasValue := strings.Cut(name, "=")
		if !hasValue {
			value = "true"
		}
		props[key] = value
	}
	if len(nonOption) > 0 {
		props[PropertyNonOptionArgs] = strings.Join(nonOption, ",")
	}
	return PropertySource{Name: CommandLineSourceName, Properties: props}
}
