package httpclient

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vareport/vareport/pkg/duration"
)

func TestDefault_IsSingleton(t *testing.T) {
	t.Parallel()

	c1 := Default()
	require.NotNil(t, c1)
	assert.Same(t, c1, Default())
	assert.Equal(t, duration.UpstreamFetch, c1.Timeout)
}

func TestNew_RespectsTimeout(t *testing.T) {
	t.Parallel()

	client := New(Config{Timeout: 5 * time.Second})
	assert.Equal(t, 5*time.Second, client.Timeout)
}

func TestNew_PoolSettings(t *testing.T) {
	t.Parallel()

	client := New(Config{MaxConnsPerHost: 2})
	ua, ok := client.Transport.(*userAgentTransport)
	require.True(t, ok)
	tr, ok := ua.base.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, 2, tr.MaxConnsPerHost)
	assert.Equal(t, 2, tr.MaxIdleConnsPerHost)
	assert.Equal(t, DefaultConfig().MaxIdleConns, tr.MaxIdleConns)
	assert.Nil(t, tr.TLSClientConfig, "certificate verification stays on")
}

func TestUserAgent(t *testing.T) {
	t.Parallel()

	got := make(chan string, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got <- r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	client := New(Config{})
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "custom/1")
	resp, err = client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, UserAgent(), <-got)
	assert.Equal(t, "custom/1", <-got)
}
