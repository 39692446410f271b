package config

import "errors"

// Errors returned by Load and Validate, wrapped with the offending file,
// environment variable or key. Match them with errors.Is.
var (
	// ErrInvalidConfig covers an unreadable or malformed YAML file, an
	// environment value that does not parse (VAREPORT_VALIDATE=maybe), and
	// out-of-range settings such as a non-positive rate limit or timeout,
	// an unknown log level, or an upstream or hook URL that is not http(s).
	ErrInvalidConfig = errors.New("config: invalid configuration")

	// ErrMissingRequired reports a setting that was cleared but has no
	// usable default: output.dir, or hooks.nats_subject while a NATS URL
	// is set.
	ErrMissingRequired = errors.New("config: missing required field")
)
