package events

import "time"

// Status is the outcome of a generation.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// GenerationRecord is the structured log record of one generation. Its
// JSON form is what the upstream log collaborator receives.
type GenerationRecord struct {
	ReportID             string `json:"reportId"`
	TargetIP             string `json:"targetIP"`
	GeneratedAt          string `json:"generatedAt"`
	VulnerabilitiesCount int    `json:"vulnerabilitiesCount"`
	Status               Status `json:"status"`
	// Timestamp is unix milliseconds.
	Timestamp int64 `json:"timestamp"`
}

// GenerationEvent is emitted once per generation call. DurationMs is the
// wall time of the call.
type GenerationEvent struct {
	BaseEvent
	Record     GenerationRecord `json:"record"`
	FileName   string           `json:"file_name,omitempty"`
	Pages      int              `json:"pages,omitzero"`
	Digest     string           `json:"digest,omitempty"`
	DurationMs int64            `json:"duration_ms"`
	Error      string           `json:"error,omitempty"`
}

// NewGenerationEvent returns an event for rec.
func NewGenerationEvent(generationID string, rec GenerationRecord) *GenerationEvent {
	return &GenerationEvent{
		BaseEvent: BaseEvent{
			Type:       EventTypeGeneration,
			Time:       time.UnixMilli(rec.Timestamp).UTC(),
			Generation: generationID,
		},
		Record: rec,
	}
}

// Failed reports whether the generation failed.
func (e *GenerationEvent) Failed() bool { return e.Record.Status == StatusFailed }
