package feeders

import "errors"

// Static error definitions for feeders
var (
	ErrFileRead        = errors.New("failed to read property file")
	ErrYamlParse       = errors.New("failed to parse YAML")
	ErrTomlParse       = errors.New("failed to parse TOML")
	ErrKeyNotFound     = errors.New("key not found")
	ErrTargetNil       = errors.New("target is nil")
	ErrEnvPrefixNeeded = errors.New("environment feeder needs a prefix")
)
