package mcpserver

import (
	"context"

	"github.com/vareport/vareport/pkg/output/events"
)

// Hook bridges the event dispatcher to the MCP server. It implements the
// dispatcher.Hook interface.
type Hook struct {
	onEvent func(events.Event)
}

// NewHook creates a Hook that calls fn for every generation event.
func NewHook(fn func(events.Event)) *Hook {
	return &Hook{onEvent: fn}
}

// OnEvent is called by the dispatcher for each matching event.
func (h *Hook) OnEvent(_ context.Context, event events.Event) error {
	if h.onEvent != nil {
		h.onEvent(event)
	}
	return nil
}

// EventTypes restricts the hook to generation events.
func (h *Hook) EventTypes() []events.EventType {
	return []events.EventType{events.EventTypeGeneration}
}

// Hook returns a dispatcher hook that feeds vareport://generations. Register
// it on the dispatcher the Generator reports to.
func (s *Server) Hook() *Hook {
	return NewHook(func(ev events.Event) {
		if g, ok := ev.(*events.GenerationEvent); ok {
			s.record(g.Record)
		}
	})
}
