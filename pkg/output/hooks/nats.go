package hooks

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/vareport/vareport/pkg/defaults"
	"github.com/vareport/vareport/pkg/duration"
	"github.com/vareport/vareport/pkg/jsonutil"
	"github.com/vareport/vareport/pkg/output/dispatcher"
	"github.com/vareport/vareport/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Hook = (*NATSHook)(nil)

// Headers set on every published generation record.
const (
	HeaderGenerationID = "x-generation-id"
	HeaderReportID     = "x-report-id"
	HeaderStatus       = "x-status"
	HeaderTimestamp    = "x-timestamp"
)

// Publisher is the subset of *nats.Conn the hook uses.
type Publisher interface {
	PublishMsg(msg *nats.Msg) error
}

// NATSHook publishes generation log records to a NATS subject. The message
// body is the record alone, in the same JSON form the upstream log
// collaborator receives.
type NATSHook struct {
	pub     Publisher
	conn    *nats.Conn
	subject string
	logger  *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NATSOptions configures the NATS hook.
type NATSOptions struct {
	// URL of the NATS server (default: nats.DefaultURL).
	URL string

	// Subject records are published to (default: "vareport.generations").
	Subject string

	// Publisher replaces the connection dialed from URL.
	Publisher Publisher

	// Logger receives publish failures. Defaults to slog.Default().
	Logger *slog.Logger
}

// NewNATSHook connects to NATS unless a Publisher is given.
func NewNATSHook(opts NATSOptions) (*NATSHook, error) {
	if opts.Subject == "" {
		opts.Subject = defaults.NATSSubject
	}
	h := &NATSHook{
		pub:     opts.Publisher,
		subject: opts.Subject,
		logger:  orDefault(opts.Logger),
	}
	if h.pub != nil {
		return h, nil
	}

	url := opts.URL
	if url == "" {
		url = nats.DefaultURL
	}
	conn, err := nats.Connect(url,
		nats.Name(defaults.ToolName),
		nats.Timeout(duration.WebhookTimeout),
		nats.ReconnectWait(duration.NATSReconnectWait),
		nats.MaxReconnects(defaults.RetryMedium),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	h.conn = conn
	h.pub = conn
	h.logger.Info("NATS hook connected", slog.String("url", url), slog.String("subject", opts.Subject))
	return h, nil
}

// OnEvent publishes generation records.
func (h *NATSHook) OnEvent(_ context.Context, event events.Event) error {
	ge, ok := event.(*events.GenerationEvent)
	if !ok {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}

	data, err := jsonutil.Marshal(ge.Record)
	if err != nil {
		return fmt.Errorf("nats: marshal record: %w", err)
	}

	msg := nats.NewMsg(h.subject)
	msg.Data = data
	msg.Header.Set(HeaderGenerationID, ge.GenerationID())
	msg.Header.Set(HeaderReportID, ge.Record.ReportID)
	msg.Header.Set(HeaderStatus, string(ge.Record.Status))
	msg.Header.Set(HeaderTimestamp, strconv.FormatInt(ge.Record.Timestamp, 10))

	if err := h.pub.PublishMsg(msg); err != nil {
		h.logger.Warn("nats: publish failed",
			slog.String("subject", h.subject),
			slog.String("error", err.Error()))
		return fmt.Errorf("nats: publish: %w", err)
	}
	return nil
}

// EventTypes returns the event types this hook handles.
func (h *NATSHook) EventTypes() []events.EventType {
	return []events.EventType{events.EventTypeGeneration}
}

// Subject returns the subject records are published to.
func (h *NATSHook) Subject() string {
	return h.subject
}

// Close flushes and closes a connection the hook dialed itself.
func (h *NATSHook) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true

	if h.conn == nil {
		return nil
	}
	err := h.conn.FlushTimeout(duration.WebhookShutdown)
	h.conn.Close()
	return err
}
