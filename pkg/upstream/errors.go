package upstream

import (
	"errors"
	"fmt"
)

var (
	// ErrNoBaseURL is returned by New without a base URL.
	ErrNoBaseURL = errors.New("upstream: base URL is required")

	// ErrCollaborator is wrapped when a collaborator answers success:false.
	ErrCollaborator = errors.New("upstream: collaborator reported failure")

	// ErrEnvelope is wrapped when a response envelope fails validation.
	ErrEnvelope = errors.New("upstream: malformed response envelope")
)

// EnvelopeError describes a failure a collaborator reported in its
// {success, message} response envelope.
type EnvelopeError struct {
	Endpoint string
	Status   int
	Message  string
	Err      error
}

func (e *EnvelopeError) Error() string {
	msg := fmt.Sprintf("%s: %s (status %d)", e.Err.Error(), e.Endpoint, e.Status)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *EnvelopeError) Unwrap() error { return e.Err }
