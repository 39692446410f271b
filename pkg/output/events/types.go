// Package events defines the events emitted while generating reports.
// All events are designed for JSON serialization; the BaseEvent struct is
// embedded in every concrete event type.
package events

import "time"

// EventType represents the type of output event.
type EventType string

const (
	// EventTypeGeneration carries the log record of one finished
	// generation, successful or failed.
	EventTypeGeneration EventType = "generation"
	// EventTypeDiagnostic carries one recovered input problem.
	EventTypeDiagnostic EventType = "diagnostic"
)

// Event is the base interface for all events.
type Event interface {
	EventType() EventType
	Timestamp() time.Time
	GenerationID() string
}

// BaseEvent contains common fields for all events.
type BaseEvent struct {
	Type       EventType `json:"type"`
	Time       time.Time `json:"timestamp"`
	Generation string    `json:"generation_id"`
}

// EventType returns the type of this event.
func (e BaseEvent) EventType() EventType { return e.Type }

// Timestamp returns when this event occurred.
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// GenerationID returns the identifier of the generation call that
// produced this event.
func (e BaseEvent) GenerationID() string { return e.Generation }
