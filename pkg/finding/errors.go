package finding

import "errors"

// ErrUnknownSeverity is returned by Strict when a value does not name a
// severity level. Callers should use errors.Is() to check for it.
var ErrUnknownSeverity = errors.New("finding: unknown severity")
