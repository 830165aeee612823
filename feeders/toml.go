package feeders

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// TomlFeeder is a feeder that reads TOML files
type TomlFeeder struct {
	Path         string
	verboseDebug bool
	logger       debugLogger
}

func NewTomlFeeder(filePath string) *TomlFeeder {
	return &TomlFeeder{Path: filePath}
}

// SetVerboseDebug enables or disables verbose debug logging
func (t *TomlFeeder) SetVerboseDebug(enabled bool, logger debugLogger) {
	t.verboseDebug = enabled
	t.logger = logger
}

func (t *TomlFeeder) Name() string {
	return "toml:" + t.Path
}

// Feed reads the file and returns its leaves under dotted keys. Tables
// become key prefixes.
func (t *TomlFeeder) Feed() (map[string]any, error) {
	data, err := t.read()
	if err != nil {
		return nil, err
	}
	props := make(map[string]any)
	flatten("", data, props)
	if t.verboseDebug && t.logger != nil {
		t.logger.Debug("TomlFeeder: loaded properties", "path", t.Path, "count", len(props))
	}
	return props, nil
}

// FeedKey reads a TOML file and decodes the table at key into target.
// A missing key leaves target untouched.
func (t *TomlFeeder) FeedKey(key string, target any) error {
	if target == nil {
		return ErrTargetNil
	}
	data, err := t.read()
	if err != nil {
		return err
	}

	value, exists := lookup(data, key)
	if !exists {
		return nil
	}

	// Remarshal and unmarshal to handle type conversions
	valueBytes, err := toml.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	if err = toml.Unmarshal(valueBytes, target); err != nil {
		return fmt.Errorf("failed to unmarshal value to target: %w", err)
	}
	return nil
}

func (t *TomlFeeder) read() (map[string]any, error) {
	raw, err := os.ReadFile(t.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFileRead, t.Path, err)
	}
	data := make(map[string]any)
	if _, err := toml.Decode(string(raw), &data); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTomlParse, t.Path, err)
	}
	return data, nil
}
