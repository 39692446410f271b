package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vareport/vareport/pkg/defaults"
)

func ok(context.Context) error { return nil }

func TestRun_NoChecks(t *testing.T) {
	t.Parallel()

	rep := NewChecker(0).Run(context.Background())
	assert.Equal(t, StatusHealthy, rep.Status)
	assert.Equal(t, defaults.ToolName, rep.Tool)
	assert.Equal(t, defaults.Version, rep.Version)
	assert.Empty(t, rep.Checks)
}

func TestRun_Statuses(t *testing.T) {
	t.Parallel()

	down := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name   string
		checks []Check
		want   Status
	}{
		{"all healthy", []Check{{Name: "a", Probe: ok}, {Name: "b", Probe: ok}}, StatusHealthy},
		{"optional down", []Check{{Name: "a", Probe: ok}, {Name: "nats", Probe: down, Optional: true}}, StatusDegraded},
		{"required down", []Check{{Name: "upstream", Probe: down}, {Name: "nats", Probe: down, Optional: true}}, StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rep := NewChecker(time.Second, tt.checks...).Run(context.Background())
			assert.Equal(t, tt.want, rep.Status)
			require.Len(t, rep.Checks, len(tt.checks))
		})
	}
}

func TestRun_ResultDetails(t *testing.T) {
	t.Parallel()

	rep := NewChecker(time.Second,
		Check{Name: "z", Probe: ok},
		Check{Name: "a", Probe: func(context.Context) error { return errors.New("boom") }},
	).Run(context.Background())

	require.Len(t, rep.Checks, 2)
	assert.Equal(t, "a", rep.Checks[0].Name, "results are sorted by name")
	assert.Equal(t, StatusUnhealthy, rep.Checks[0].Status)
	assert.Equal(t, "boom", rep.Checks[0].Message)
	assert.True(t, rep.Checks[1].IsHealthy())
}

func TestRun_Timeout(t *testing.T) {
	t.Parallel()

	slow := func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}
	rep := NewChecker(10*time.Millisecond, Check{Name: "slow", Probe: slow}).Run(context.Background())
	assert.Equal(t, StatusUnhealthy, rep.Status)
	assert.Contains(t, rep.Checks[0].Message, "deadline exceeded")
}

func TestTCPProbe(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	probe, err := TCPProbe(srv.URL)
	require.NoError(t, err)
	assert.NoError(t, probe(context.Background()))

	_, err = TCPProbe("not a url")
	assert.ErrorIs(t, err, ErrInvalidEndpoint)

	_, err = TCPProbe("nats://broker")
	assert.ErrorIs(t, err, ErrInvalidEndpoint)

	probe, err = TCPProbe("https://example.invalid")
	require.NoError(t, err)
	assert.NotNil(t, probe)
}
