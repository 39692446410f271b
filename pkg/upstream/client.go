// Package upstream talks to the assessment collaborators: the target
// information collector, the network scanner, the vulnerability assessor
// and the report log. It assembles their responses into the input
// document the report generator consumes.
package upstream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/vareport/vareport/pkg/defaults"
	"github.com/vareport/vareport/pkg/duration"
	"github.com/vareport/vareport/pkg/httpclient"
	"github.com/vareport/vareport/pkg/iohelper"
	"github.com/vareport/vareport/pkg/jsonutil"
	"github.com/vareport/vareport/pkg/output/events"
	"github.com/vareport/vareport/pkg/retry"
)

// Collaborator endpoints, relative to the base URL.
const (
	EndpointTargetInfo      = "/collect-target-info"
	EndpointNetworkScan     = "/network-scan"
	EndpointVulnerabilities = "/vulnerability-assessment"
	EndpointLog             = "/log-report-generation"
)


// Options configures a Client.
type Options struct {
	// BaseURL is the collaborator root, e.g. http://localhost:5000.
	BaseURL string

	// Client overrides the HTTP client. Defaults to httpclient.New with
	// Timeout.
	Client *http.Client

	// Timeout bounds each request (default: duration.UpstreamFetch).
	// Scan endpoints get duration.UpstreamScan.
	Timeout time.Duration

	// Retry overrides the retry policy. Retries defaults to
	// defaults.RetryLow.
	Retry *retry.Config

	// Logger receives retry and partial-result warnings.
	Logger *slog.Logger
}

// Client calls collaborator endpoints.
type Client struct {
	base    string
	client  *http.Client
	timeout time.Duration
	retry   retry.Config
	logger  *slog.Logger
}

// New returns a Client for opts.
func New(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, ErrNoBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = duration.UpstreamFetch
	}
	client := opts.Client
	if client == nil {
		// Per-request contexts carry the deadlines.
		client = httpclient.New(httpclient.Config{Timeout: duration.UpstreamScan})
	}
	cfg := retry.DefaultConfig()
	cfg.Retries = defaults.RetryLow
	if opts.Retry != nil {
		cfg = *opts.Retry
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.OnRetry == nil {
		cfg.OnRetry = func(err error, next time.Duration) {
			logger.Warn("upstream: retrying request",
				slog.String("error", err.Error()),
				slog.Duration("next", next))
		}
	}
	return &Client{base: base, client: client, timeout: opts.Timeout, retry: cfg, logger: logger}, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string { return c.base }

type response struct {
	status      int
	contentType string
	body        []byte
}

// post sends payload as JSON to endpoint with retries. Transport errors,
// 5xx and 429 are retried; other non-2xx statuses and collaborator
// envelopes reporting failure are not.
func (c *Client) post(ctx context.Context, endpoint string, payload any, timeout time.Duration) (response, error) {
	data, err := jsonutil.Marshal(payload)
	if err != nil {
		return response{}, fmt.Errorf("upstream: encode %s request: %w", endpoint, err)
	}

	return retry.Value(ctx, c.retry, func() (response, error) {
		reqCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.base+endpoint, bytes.NewReader(data))
		if err != nil {
			return response{}, retry.Stop(fmt.Errorf("upstream: build %s request: %w", endpoint, err))
		}
		req.Header.Set("Content-Type", defaults.ContentTypeJSON)
		req.Header.Set("Accept", defaults.ContentTypeJSON+", text/plain")

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return response{}, retry.Stop(ctx.Err())
			}
			return response{}, fmt.Errorf("upstream: %s: %w", endpoint, err)
		}
		defer iohelper.DrainAndClose(resp.Body)

		body, err := iohelper.ReadBody(resp.Body, iohelper.UpstreamMaxBodySize)
		if err != nil {
			return response{}, fmt.Errorf("upstream: read %s response: %w", endpoint, err)
		}

		if decoded, derr := jsonutil.DecodeLoose(body); derr == nil {
			if err := checkEnvelope(endpoint, resp.StatusCode, decoded); err != nil {
				return response{}, retry.Stop(err)
			}
		}
		if err := retry.HTTPStatus(resp.StatusCode); err != nil {
			return response{}, fmt.Errorf("upstream: %s: %w", endpoint, err)
		}
		return response{status: resp.StatusCode, contentType: resp.Header.Get("Content-Type"), body: body}, nil
	})
}

// TargetInfo collects system information about ip.
func (c *Client) TargetInfo(ctx context.Context, ip string) (any, error) {
	resp, err := c.post(ctx, EndpointTargetInfo, map[string]any{"ip_address": ip}, c.timeout)
	if err != nil {
		return nil, err
	}
	v, err := jsonutil.DecodeLoose(resp.body)
	if err != nil {
		return nil, fmt.Errorf("upstream: %s: decode response: %w", EndpointTargetInfo, err)
	}
	return v, nil
}

// NetworkScan scans ip. Responses that are not a JSON object are wrapped
// as {"raw_output": body} for the scan-text parser.
func (c *Client) NetworkScan(ctx context.Context, ip string) (map[string]any, error) {
	resp, err := c.post(ctx, EndpointNetworkScan, map[string]any{"ip_address": ip}, max(c.timeout, duration.UpstreamScan))
	if err != nil {
		return nil, err
	}
	return WrapScan(resp.body), nil
}

// Vulnerabilities runs the vulnerability assessment of ip, passing the
// network scan result along.
func (c *Client) Vulnerabilities(ctx context.Context, ip string, scan map[string]any) (any, error) {
	resp, err := c.post(ctx, EndpointVulnerabilities, map[string]any{
		"ip_address":        ip,
		"network_scan_data": scan,
	}, max(c.timeout, duration.UpstreamScan))
	if err != nil {
		return nil, err
	}
	v, err := jsonutil.DecodeLoose(resp.body)
	if err != nil {
		return nil, fmt.Errorf("upstream: %s: decode response: %w", EndpointVulnerabilities, err)
	}
	return v, nil
}

// Fetch queries every collaborator for ip and assembles the report input
// document. A target information failure reported by the collaborator is
// not fatal: the target section then falls back to defaults.
func (c *Client) Fetch(ctx context.Context, ip string) (map[string]any, error) {
	target := map[string]any{"ip": ip}

	info, err := c.TargetInfo(ctx, ip)
	var envErr *EnvelopeError
	switch {
	case err == nil:
		target["systemData"] = info
	case errors.As(err, &envErr):
		c.logger.Warn("upstream: target information unavailable",
			slog.String("ip", ip),
			slog.String("error", err.Error()))
	default:
		return nil, err
	}

	scan, err := c.NetworkScan(ctx, ip)
	if err != nil {
		return nil, err
	}
	vulns, err := c.Vulnerabilities(ctx, ip, scan)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"target":                  target,
		"networkScan":             scan,
		"vulnerabilityAssessment": vulns,
	}, nil
}

// LogGeneration posts a generation record to the collaborator's report log.
func (c *Client) LogGeneration(ctx context.Context, rec events.GenerationRecord) error {
	_, err := c.post(ctx, EndpointLog, rec, c.timeout)
	return err
}

// WrapScan returns body as a scan object. JSON objects pass through, JSON
// strings and everything else become {"raw_output": text}.
func WrapScan(body []byte) map[string]any {
	v, err := jsonutil.DecodeLoose(body)
	if err == nil {
		switch t := v.(type) {
		case map[string]any:
			return t
		case string:
			return map[string]any{"raw_output": t}
		}
	}
	return map[string]any{"raw_output": string(body)}
}
