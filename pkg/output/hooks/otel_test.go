package hooks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/vareport/vareport/pkg/output/events"
)

func newTestOTelHook(t *testing.T) (*OTelHook, *tracetest.InMemoryExporter) {
	t.Helper()
	exp := tracetest.NewInMemoryExporter()
	h, err := NewOTelHook(OTelOptions{Exporter: exp, ShutdownTimeout: time.Second})
	require.NoError(t, err)
	return h, exp
}

func spanAttrs(kvs []attribute.KeyValue) map[string]string {
	out := make(map[string]string, len(kvs))
	for _, kv := range kvs {
		out[string(kv.Key)] = kv.Value.Emit()
	}
	return out
}

func TestOTelHook_Defaults(t *testing.T) {
	t.Parallel()

	h, _ := newTestOTelHook(t)
	defer h.Close()
	assert.Equal(t, "vareport", h.ServiceName())
	assert.Equal(t, "localhost:4317", h.Endpoint())
	assert.ElementsMatch(t, []events.EventType{events.EventTypeGeneration, events.EventTypeDiagnostic}, h.EventTypes())
}

func TestOTelHook_SpanPerGeneration(t *testing.T) {
	t.Parallel()

	h, exp := newTestOTelHook(t)
	defer h.Close()
	ctx := context.Background()

	require.NoError(t, h.OnEvent(ctx, newDiagnostic("g1", "target.os")))
	require.NoError(t, h.OnEvent(ctx, newDiagnostic("g1", "target.hostname")))
	require.NoError(t, h.OnEvent(ctx, newDiagnostic("other", "target.os")))
	require.NoError(t, h.OnEvent(ctx, newGeneration("g1", events.StatusSuccess)))

	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, SpanName, span.Name)
	assert.Equal(t, codes.Ok, span.Status.Code)
	assert.True(t, span.EndTime.Equal(testTime))
	assert.Equal(t, 120*time.Millisecond, span.EndTime.Sub(span.StartTime))

	a := spanAttrs(span.Attributes)
	assert.Equal(t, "g1", a["generation_id"])
	assert.Equal(t, "10.0.0.5", a["target_ip"])
	assert.Equal(t, "6", a["pages"])

	require.Len(t, span.Events, 2)
	assert.Equal(t, "diagnostic", span.Events[0].Name)
	assert.Equal(t, "target.os", spanAttrs(span.Events[0].Attributes)["field"])
	assert.Equal(t, "target.hostname", spanAttrs(span.Events[1].Attributes)["field"])

	h.mu.Lock()
	defer h.mu.Unlock()
	assert.NotContains(t, h.pending, "g1")
	assert.Contains(t, h.pending, "other")
}

func TestOTelHook_FailedGenerationSetsErrorStatus(t *testing.T) {
	t.Parallel()

	h, exp := newTestOTelHook(t)
	defer h.Close()
	require.NoError(t, h.OnEvent(context.Background(), newGeneration("g2", events.StatusFailed)))

	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "layout: table: invalid table", spans[0].Status.Description)
}

func TestOTelHook_PendingIsBounded(t *testing.T) {
	t.Parallel()

	h, _ := newTestOTelHook(t)
	defer h.Close()
	for i := 0; i < maxPendingGenerations+10; i++ {
		require.NoError(t, h.OnEvent(context.Background(), newDiagnostic(time.Duration(i).String(), "f")))
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	assert.Len(t, h.pending, maxPendingGenerations)
	assert.Len(t, h.order, maxPendingGenerations)
	assert.NotContains(t, h.pending, time.Duration(0).String())
}

func TestOTelHook_CloseIsIdempotent(t *testing.T) {
	t.Parallel()

	h, exp := newTestOTelHook(t)
	require.NoError(t, h.Close())
	require.NoError(t, h.Close())
	require.NoError(t, h.OnEvent(context.Background(), newGeneration("g1", events.StatusSuccess)))
	assert.Empty(t, exp.GetSpans())
}
