package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newLimiter(cfg Config) (*Limiter, *clock) {
	clk := &clock{t: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}
	l := New(cfg)
	l.now = clk.now
	return l, clk
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	l := New(Config{})
	assert.Equal(t, DefaultConfig(), l.cfg)
}

func TestAllow_Burst(t *testing.T) {
	t.Parallel()

	l, clk := newLimiter(Config{RequestsPerSecond: 1, Burst: 3, IdleTTL: time.Hour})
	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("10.0.0.1"), "request %d", i)
	}
	assert.False(t, l.Allow("10.0.0.1"))
	assert.Equal(t, time.Second, l.RetryAfter("10.0.0.1"))

	clk.advance(time.Second)
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
}

func TestAllow_PerClient(t *testing.T) {
	t.Parallel()

	l, _ := newLimiter(Config{RequestsPerSecond: 1, Burst: 1, IdleTTL: time.Hour})
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"))
	assert.Equal(t, 2, l.Len())
	assert.Zero(t, l.RetryAfter("unknown"))
}

func TestAllow_EvictsIdleClients(t *testing.T) {
	t.Parallel()

	l, clk := newLimiter(Config{RequestsPerSecond: 1, Burst: 1, IdleTTL: time.Minute})
	require.True(t, l.Allow("a"))
	clk.advance(30 * time.Second)
	require.True(t, l.Allow("b"))
	assert.Equal(t, 2, l.Len())

	clk.advance(45 * time.Second)
	require.True(t, l.Allow("b"))
	assert.Equal(t, 1, l.Len(), "a was idle for 75s")
}

func TestAllow_Concurrent(t *testing.T) {
	t.Parallel()

	l, _ := newLimiter(Config{RequestsPerSecond: 1, Burst: 50, IdleTTL: time.Hour})
	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("shared") {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, allowed)
}
