package feeders

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// YamlFeeder is a feeder that reads YAML files
type YamlFeeder struct {
	Path         string
	verboseDebug bool
	logger       debugLogger
}

// NewYamlFeeder creates a new YamlFeeder that reads from the specified YAML file
func NewYamlFeeder(filePath string) *YamlFeeder {
	return &YamlFeeder{Path: filePath}
}

// SetVerboseDebug enables or disables verbose debug logging
func (y *YamlFeeder) SetVerboseDebug(enabled bool, logger debugLogger) {
	y.verboseDebug = enabled
	y.logger = logger
}

// Name identifies the property source built from this file.
func (y *YamlFeeder) Name() string {
	return "yaml:" + y.Path
}

// Feed reads the file and returns its leaves under dotted keys.
func (y *YamlFeeder) Feed() (map[string]any, error) {
	data, err := y.read()
	if err != nil {
		return nil, err
	}
	props := make(map[string]any)
	flatten("", data, props)
	if y.verboseDebug && y.logger != nil {
		y.logger.Debug("YamlFeeder: loaded properties", "path", y.Path, "count", len(props))
	}
	return props, nil
}

// FeedKey reads a YAML file and decodes the subtree at key into target.
// A missing key leaves target untouched.
func (y *YamlFeeder) FeedKey(key string, target any) error {
	if target == nil {
		return ErrTargetNil
	}
	data, err := y.read()
	if err != nil {
		return err
	}

	value, exists := lookup(data, key)
	if !exists {
		if y.verboseDebug && y.logger != nil {
			y.logger.Debug("YamlFeeder: key not present", "path", y.Path, "key", key)
		}
		return nil
	}

	// Remarshal and unmarshal to handle type conversions
	valueBytes, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	if err = yaml.Unmarshal(valueBytes, target); err != nil {
		return fmt.Errorf("failed to unmarshal value to target: %w", err)
	}
	return nil
}

func (y *YamlFeeder) read() (map[string]any, error) {
	raw, err := os.ReadFile(y.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFileRead, y.Path, err)
	}
	data := make(map[string]any)
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrYamlParse, y.Path, err)
	}
	return data, nil
}
