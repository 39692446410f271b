package main

import (
	"fmt"

	"github.com/vareport/vareport/pkg/defaults"
)

// exitError carries a process exit code out of a command.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

// exitWith returns an exitError with a formatted message.
func exitWith(code int, format string, args ...any) error {
	return &exitError{code: code, msg: fmt.Sprintf(format, args...)}
}

// usageError reports invalid arguments or configuration.
func usageError(format string, args ...any) error {
	return exitWith(defaults.ExitUserError, format, args...)
}
