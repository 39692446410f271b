// Package health reports the status of the service and the collaborators
// it depends on.
package health

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/vareport/vareport/pkg/defaults"
)

// ErrInvalidEndpoint is returned by TCPProbe for unusable addresses.
var ErrInvalidEndpoint = errors.New("health: invalid endpoint")

// Status represents the health status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

// Probe returns nil when the dependency is reachable.
type Probe func(ctx context.Context) error

// Check is a named probe. Optional checks degrade the report instead of
// failing it.
type Check struct {
	Name     string
	Probe    Probe
	Optional bool
}

// Result represents a health check result
type Result struct {
	Name      string `json:"name"`
	Status    Status `json:"status"`
	LatencyMs int64  `json:"latency_ms"`
	Message   string `json:"message,omitempty"`
}

// IsHealthy returns true if the result indicates healthy status
func (r Result) IsHealthy() bool {
	return r.Status == StatusHealthy
}

// Report is the aggregate health document.
type Report struct {
	Status  Status   `json:"status"`
	Tool    string   `json:"tool"`
	Version string   `json:"version"`
	Checks  []Result `json:"checks,omitempty"`
}

// Checker runs checks concurrently, each bounded by Timeout.
type Checker struct {
	Timeout time.Duration
	checks  []Check
}

// NewChecker returns a Checker with the given per-check timeout.
func NewChecker(timeout time.Duration, checks ...Check) *Checker {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Checker{Timeout: timeout, checks: checks}
}

// Run executes every check. With no checks the report is healthy.
func (c *Checker) Run(ctx context.Context) Report {
	rep := Report{Status: StatusHealthy, Tool: defaults.ToolName, Version: defaults.Version}
	if len(c.checks) == 0 {
		return rep
	}

	results := make([]Result, len(c.checks))
	var wg sync.WaitGroup
	for i, chk := range c.checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = c.runOne(ctx, chk)
		}()
	}
	wg.Wait()

	for i, r := range results {
		if r.IsHealthy() {
			continue
		}
		if c.checks[i].Optional {
			if rep.Status == StatusHealthy {
				rep.Status = StatusDegraded
			}
			continue
		}
		rep.Status = StatusUnhealthy
	}
	sort.SliceStable(results, func(a, b int) bool { return results[a].Name < results[b].Name })
	rep.Checks = results
	return rep
}

func (c *Checker) runOne(ctx context.Context, chk Check) Result {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	start := time.Now()
	err := chk.Probe(ctx)
	res := Result{Name: chk.Name, Status: StatusHealthy, LatencyMs: time.Since(start).Milliseconds()}
	if err != nil {
		res.Status = StatusUnhealthy
		res.Message = err.Error()
	}
	return res
}

// TCPProbe dials the host of rawURL, using the scheme's default port when
// the URL has none.
func TCPProbe(rawURL string) (Probe, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEndpoint, rawURL)
	}
	port := u.Port()
	if port == "" {
		switch u.Scheme {
		case "https":
			port = "443"
		case "http":
			port = "80"
		default:
			return nil, fmt.Errorf("%w: %q has no port", ErrInvalidEndpoint, rawURL)
		}
	}
	addr := net.JoinHostPort(u.Hostname(), port)
	return func(ctx context.Context) error {
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return err
		}
		return conn.Close()
	}, nil
}
