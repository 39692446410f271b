package events

import "time"

// DiagnosticEvent reports an input field that was absent or malformed and
// was recovered by a fallback, or scan text that could not be parsed.
type DiagnosticEvent struct {
	BaseEvent
	Kind    string `json:"kind"`
	Field   string `json:"field"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

// NewDiagnosticEvent returns a diagnostic event stamped with t.
func NewDiagnosticEvent(generationID string, t time.Time, kind, field, path, message string) *DiagnosticEvent {
	return &DiagnosticEvent{
		BaseEvent: BaseEvent{Type: EventTypeDiagnostic, Time: t, Generation: generationID},
		Kind:      kind,
		Field:     field,
		Path:      path,
		Message:   message,
	}
}
