package feeders

import (
	"os"
	"strings"
)

// EnvFeeder reads environment variables sharing a prefix. APP_SERVER_PORT
// with prefix "APP_" becomes the property server.port.
type EnvFeeder struct {
	Prefix       string
	environ      func() []string
	verboseDebug bool
	logger       debugLogger
}

// NewEnvFeeder creates a new EnvFeeder that reads from environment variables
func NewEnvFeeder(prefix string) *EnvFeeder {
	return &EnvFeeder{Prefix: prefix, environ: os.Environ}
}

// SetVerboseDebug enables or disables verbose debug logging
func (f *EnvFeeder) SetVerboseDebug(enabled bool, logger debugLogger) {
	f.verboseDebug = enabled
	f.logger = logger
}

func (f *EnvFeeder) Name() string {
	return "env:" + f.Prefix
}

// Feed returns the matching variables as string properties.
func (f *EnvFeeder) Feed() (map[string]any, error) {
	if f.Prefix == "" {
		return nil, ErrEnvPrefixNeeded
	}
	environ := f.environ
	if environ == nil {
		environ = os.Environ
	}

	props := make(map[string]any)
	for _, kv := range environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		rest, ok := strings.CutPrefix(name, f.Prefix)
		if !ok || rest == "" {
			continue
		}
		key := strings.ToLower(strings.ReplaceAll(rest, "_", "."))
		props[key] = value
		if f.verboseDebug && f.logger != nil {
			f.logger.Debug("EnvFeeder: mapped variable", "var", name, "property", key)
		}
	}
	return props, nil
}
