package hooks

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vareport/vareport/pkg/jsonutil"
	"github.com/vareport/vareport/pkg/output/events"
)

type fakePublisher struct {
	mu   sync.Mutex
	msgs []*nats.Msg
	err  error
}

func (p *fakePublisher) PublishMsg(msg *nats.Msg) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func TestNATSHook_PublishesRecord(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	h, err := NewNATSHook(NATSOptions{Publisher: pub})
	require.NoError(t, err)
	assert.Equal(t, "vareport.generations", h.Subject())
	assert.Equal(t, []events.EventType{events.EventTypeGeneration}, h.EventTypes())

	ctx := context.Background()
	require.NoError(t, h.OnEvent(ctx, newDiagnostic("g1", "target.os")))
	require.NoError(t, h.OnEvent(ctx, newGeneration("g1", events.StatusSuccess)))

	require.Len(t, pub.msgs, 1)
	msg := pub.msgs[0]
	assert.Equal(t, "vareport.generations", msg.Subject)
	assert.Equal(t, "g1", msg.Header.Get(HeaderGenerationID))
	assert.Equal(t, "VULN_1740825000000", msg.Header.Get(HeaderReportID))
	assert.Equal(t, "SUCCESS", msg.Header.Get(HeaderStatus))
	assert.Equal(t, strconv.FormatInt(testTime.UnixMilli(), 10), msg.Header.Get(HeaderTimestamp))

	var rec events.GenerationRecord
	require.NoError(t, jsonutil.Unmarshal(msg.Data, &rec))
	assert.Equal(t, "10.0.0.5", rec.TargetIP)
	assert.Equal(t, 4, rec.VulnerabilitiesCount)
	assert.Equal(t, events.StatusSuccess, rec.Status)
}

func TestNATSHook_CustomSubject(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	h, err := NewNATSHook(NATSOptions{Publisher: pub, Subject: "reports.log"})
	require.NoError(t, err)
	require.NoError(t, h.OnEvent(context.Background(), newGeneration("g1", events.StatusFailed)))
	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "reports.log", pub.msgs[0].Subject)
	assert.Equal(t, "FAILED", pub.msgs[0].Header.Get(HeaderStatus))
}

func TestNATSHook_PublishFailure(t *testing.T) {
	t.Parallel()

	rec := &logRecorder{}
	pub := &fakePublisher{err: errors.New("nats: connection closed")}
	h, err := NewNATSHook(NATSOptions{Publisher: pub, Logger: slog.New(rec)})
	require.NoError(t, err)

	err = h.OnEvent(context.Background(), newGeneration("g1", events.StatusSuccess))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection closed")
	assert.Len(t, rec.getRecords(), 1)
}

func TestNATSHook_ClosedDropsEvents(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	h, err := NewNATSHook(NATSOptions{Publisher: pub})
	require.NoError(t, err)
	require.NoError(t, h.Close())
	require.NoError(t, h.OnEvent(context.Background(), newGeneration("g1", events.StatusSuccess)))
	assert.Empty(t, pub.msgs)
}

func TestNATSHook_ConnectFailure(t *testing.T) {
	t.Parallel()

	_, err := NewNATSHook(NATSOptions{URL: "nats://127.0.0.1:1", Logger: slog.New(&logRecorder{})})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to NATS")
}
