package upstream

import (
	"context"
	"log/slog"

	"github.com/vareport/vareport/pkg/output/dispatcher"
	"github.com/vareport/vareport/pkg/output/events"
)

var _ dispatcher.Hook = (*LogHook)(nil)

// LogHook forwards generation records to the collaborator's report log.
// Delivery failures are logged and never surface to the dispatcher.
type LogHook struct {
	client *Client
}

// NewLogHook returns a hook posting through c.
func NewLogHook(c *Client) *LogHook {
	return &LogHook{client: c}
}

// OnEvent posts the record of generation events.
func (h *LogHook) OnEvent(ctx context.Context, event events.Event) error {
	ge, ok := event.(*events.GenerationEvent)
	if !ok {
		return nil
	}
	if err := h.client.LogGeneration(ctx, ge.Record); err != nil {
		h.client.logger.Warn("upstream: failed to log generation",
			slog.String("generation_id", ge.GenerationID()),
			slog.String("error", err.Error()))
	}
	return nil
}

// EventTypes returns the generation event type.
func (h *LogHook) EventTypes() []events.EventType {
	return []events.EventType{events.EventTypeGeneration}
}
