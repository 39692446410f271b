package hooks

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vareport/vareport/pkg/output/events"
)

func TestPrometheusHook_CountsEvents(t *testing.T) {
	t.Parallel()

	h, err := NewPrometheusHook(PrometheusOptions{})
	require.NoError(t, err)
	defer h.Close()

	ctx := context.Background()
	require.NoError(t, h.OnEvent(ctx, newDiagnostic("g1", "target.os")))
	require.NoError(t, h.OnEvent(ctx, newDiagnostic("g1", "target.hostname")))
	require.NoError(t, h.OnEvent(ctx, newGeneration("g1", events.StatusSuccess)))
	require.NoError(t, h.OnEvent(ctx, newGeneration("g2", events.StatusFailed)))

	assert.Equal(t, 1.0, testutil.ToFloat64(h.generationsTotal.WithLabelValues("SUCCESS")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.generationsTotal.WithLabelValues("FAILED")))
	assert.Equal(t, 2.0, testutil.ToFloat64(h.diagnosticsTotal.WithLabelValues("data_shape")))
	assert.Equal(t, 4.0, testutil.ToFloat64(h.vulnerabilities), "failed generations add no vulnerabilities")
	assert.Equal(t, float64(testTime.Unix()), testutil.ToFloat64(h.lastGenerationSec))
}

func TestPrometheusHook_Handler(t *testing.T) {
	t.Parallel()

	h, err := NewPrometheusHook(PrometheusOptions{})
	require.NoError(t, err)
	require.NoError(t, h.OnEvent(context.Background(), newGeneration("g1", events.StatusSuccess)))

	srv := httptest.NewServer(h.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	text := string(body)
	assert.Contains(t, text, `vareport_generations_total{status="SUCCESS"} 1`)
	assert.Contains(t, text, "vareport_report_pages_bucket")
	assert.Contains(t, text, "vareport_generation_duration_seconds_count")
}

func TestPrometheusHook_IgnoresEventsAfterClose(t *testing.T) {
	t.Parallel()

	h, err := NewPrometheusHook(PrometheusOptions{})
	require.NoError(t, err)
	require.NoError(t, h.Close())
	require.NoError(t, h.Close())
	require.NoError(t, h.OnEvent(context.Background(), newGeneration("g1", events.StatusSuccess)))
	assert.Zero(t, testutil.ToFloat64(h.generationsTotal.WithLabelValues("SUCCESS")))
}

func TestPrometheusHook_IndependentRegistries(t *testing.T) {
	t.Parallel()

	a, err := NewPrometheusHook(PrometheusOptions{})
	require.NoError(t, err)
	b, err := NewPrometheusHook(PrometheusOptions{})
	require.NoError(t, err)
	assert.NotSame(t, a.Registry(), b.Registry())
}
