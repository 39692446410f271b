package hooks

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/vareport/vareport/pkg/defaults"
	"github.com/vareport/vareport/pkg/duration"
	"github.com/vareport/vareport/pkg/httpclient"
	"github.com/vareport/vareport/pkg/iohelper"
	"github.com/vareport/vareport/pkg/jsonutil"
	"github.com/vareport/vareport/pkg/output/dispatcher"
	"github.com/vareport/vareport/pkg/output/events"
	"github.com/vareport/vareport/pkg/retry"
)

// Compile-time interface check.
var _ dispatcher.Hook = (*WebhookHook)(nil)

// EventTypeHeader carries the event type on webhook requests.
const EventTypeHeader = "X-Vareport-Event-Type"

// WebhookHook POSTs events as JSON to an HTTP endpoint.
// It supports retries with exponential backoff, custom headers,
// and filtering to generation records or failures only.
type WebhookHook struct {
	endpoint string
	client   *http.Client
	opts     WebhookOptions
	logger   *slog.Logger
}

// WebhookOptions configures the webhook hook behavior.
type WebhookOptions struct {
	// Headers to include in requests.
	Headers map[string]string

	// Timeout for HTTP requests (default: 10s).
	Timeout time.Duration

	// Retry controls resending after 5xx and transport errors
	// (default: retry.DefaultConfig()).
	Retry *retry.Config

	// OnlyGenerations skips diagnostic events.
	OnlyGenerations bool

	// OnlyFailures sends only failed generation records.
	OnlyFailures bool

	// Client overrides the HTTP client.
	Client *http.Client

	// Logger receives delivery failures. Defaults to slog.Default().
	Logger *slog.Logger
}

// NewWebhookHook creates a new webhook hook that sends events to the given endpoint.
// The hook is safe for concurrent use.
func NewWebhookHook(endpoint string, opts WebhookOptions) *WebhookHook {
	if opts.Timeout == 0 {
		opts.Timeout = duration.WebhookTimeout
	}
	if opts.Retry == nil {
		cfg := retry.DefaultConfig()
		opts.Retry = &cfg
	}
	client := opts.Client
	if client == nil {
		client = httpclient.New(httpclient.Config{Timeout: opts.Timeout})
	}

	return &WebhookHook{
		endpoint: endpoint,
		client:   client,
		opts:     opts,
		logger:   orDefault(opts.Logger),
	}
}

// OnEvent sends the event to the configured webhook endpoint.
// Failures are logged and never returned, so generation is not affected.
func (h *WebhookHook) OnEvent(ctx context.Context, event events.Event) error {
	if h.opts.OnlyFailures {
		ge, ok := event.(*events.GenerationEvent)
		if !ok || !ge.Failed() {
			return nil
		}
	}

	body, err := jsonutil.Marshal(event)
	if err != nil {
		h.logger.Warn("webhook: failed to marshal event",
			slog.String("event", string(event.EventType())),
			slog.String("error", err.Error()))
		return nil
	}

	if err := h.sendWithRetry(ctx, event.EventType(), body); err != nil {
		h.logger.Warn("webhook: failed to send event after retries",
			slog.String("endpoint", h.endpoint),
			slog.String("event", string(event.EventType())),
			slog.String("error", err.Error()))
	}
	return nil
}

// EventTypes narrows delivery to generation events when requested.
func (h *WebhookHook) EventTypes() []events.EventType {
	if h.opts.OnlyGenerations || h.opts.OnlyFailures {
		return []events.EventType{events.EventTypeGeneration}
	}
	return nil
}

// sendWithRetry retries 5xx and transport failures and stops on 4xx.
func (h *WebhookHook) sendWithRetry(ctx context.Context, eventType events.EventType, body []byte) error {
	return retry.Do(ctx, *h.opts.Retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
		if err != nil {
			return retry.Stop(fmt.Errorf("webhook: create request: %w", err))
		}

		req.Header.Set("Content-Type", defaults.ContentTypeJSON)
		req.Header.Set("User-Agent", defaults.ToolName+"/"+defaults.Version)
		req.Header.Set(EventTypeHeader, string(eventType))
		for key, value := range h.opts.Headers {
			req.Header.Set(key, value)
		}

		resp, err := h.client.Do(req)
		if err != nil {
			return fmt.Errorf("webhook: request failed: %w", err)
		}
		_ = iohelper.DrainAndClose(resp.Body)

		return retry.HTTPStatus(resp.StatusCode)
	})
}
