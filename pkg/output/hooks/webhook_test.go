package hooks

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vareport/vareport/pkg/defaults"
	"github.com/vareport/vareport/pkg/jsonutil"
	"github.com/vareport/vareport/pkg/output/events"
	"github.com/vareport/vareport/pkg/retry"
)

func fastRetry(retries int) *retry.Config {
	return &retry.Config{Retries: retries, InitDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestWebhook_PostsEventJSON(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var gotHeaders http.Header
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		gotHeaders = r.Header.Clone()
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	h := NewWebhookHook(srv.URL, WebhookOptions{
		Headers: map[string]string{"Authorization": "Bearer t"},
		Retry:   fastRetry(0),
	})
	require.NoError(t, h.OnEvent(context.Background(), newGeneration("g1", events.StatusSuccess)))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, defaults.ContentTypeJSON, gotHeaders.Get("Content-Type"))
	assert.Equal(t, "vareport/"+defaults.Version, gotHeaders.Get("User-Agent"))
	assert.Equal(t, "generation", gotHeaders.Get(EventTypeHeader))
	assert.Equal(t, "Bearer t", gotHeaders.Get("Authorization"))

	var body map[string]any
	require.NoError(t, jsonutil.Unmarshal(gotBody, &body))
	assert.Equal(t, "g1", body["generation_id"])
	record, ok := body["record"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "VULN_1740825000000", record["reportId"])
}

func TestWebhook_RetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rec := &logRecorder{}
	h := NewWebhookHook(srv.URL, WebhookOptions{Retry: fastRetry(3), Logger: slog.New(rec)})
	require.NoError(t, h.OnEvent(context.Background(), newGeneration("g1", events.StatusSuccess)))
	assert.EqualValues(t, 3, calls.Load())
	assert.Empty(t, rec.getRecords())
}

func TestWebhook_ClientErrorIsNotRetriedAndIsLogged(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	rec := &logRecorder{}
	h := NewWebhookHook(srv.URL, WebhookOptions{Retry: fastRetry(3), Logger: slog.New(rec)})
	require.NoError(t, h.OnEvent(context.Background(), newGeneration("g1", events.StatusSuccess)))
	assert.EqualValues(t, 1, calls.Load())

	records := rec.getRecords()
	require.Len(t, records, 1)
	assert.Equal(t, slog.LevelWarn, records[0].Level)
	assert.True(t, strings.Contains(records[0].Message, "failed to send event"))
	assert.Contains(t, attrs(records[0])["error"], "400")
}

func TestWebhook_UnreachableEndpointNeverFails(t *testing.T) {
	t.Parallel()

	rec := &logRecorder{}
	h := NewWebhookHook("http://127.0.0.1:1", WebhookOptions{
		Retry:   fastRetry(1),
		Timeout: time.Second,
		Logger:  slog.New(rec),
	})
	assert.NoError(t, h.OnEvent(context.Background(), newGeneration("g1", events.StatusFailed)))
	assert.Len(t, rec.getRecords(), 1)
}

func TestWebhook_Filters(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	all := NewWebhookHook(srv.URL, WebhookOptions{})
	assert.Nil(t, all.EventTypes())

	gens := NewWebhookHook(srv.URL, WebhookOptions{OnlyGenerations: true})
	assert.Equal(t, []events.EventType{events.EventTypeGeneration}, gens.EventTypes())

	failures := NewWebhookHook(srv.URL, WebhookOptions{OnlyFailures: true, Retry: fastRetry(0)})
	require.NoError(t, failures.OnEvent(context.Background(), newGeneration("g1", events.StatusSuccess)))
	require.NoError(t, failures.OnEvent(context.Background(), newDiagnostic("g1", "target.os")))
	assert.Zero(t, calls.Load())
	require.NoError(t, failures.OnEvent(context.Background(), newGeneration("g2", events.StatusFailed)))
	assert.EqualValues(t, 1, calls.Load())
}
