// Package duration provides canonical time constants for the entire codebase.
// This is the single source of truth for all time-based configuration.
//
// Usage:
//
//	ctx, cancel := context.WithTimeout(ctx, duration.UpstreamFetch)
//	srv.ReadTimeout = duration.ServerRead
//
// Do not hardcode time.Duration values like `30 * time.Second` anywhere.
package duration

import "time"

// ============================================================================
// UPSTREAM COLLABORATORS
// ============================================================================

const (
	// UpstreamFetch bounds a single collaborator request (30s).
	UpstreamFetch = 30 * time.Second

	// UpstreamScan bounds requests to scan collaborators, which may run a
	// scan before responding (5min).
	UpstreamScan = 5 * time.Minute

	// RetryFast is the initial retry delay for collaborator requests (1s).
	RetryFast = 1 * time.Second

	// RetryMax caps any single retry delay (10s).
	RetryMax = 10 * time.Second
)

// ============================================================================
// HTTP SERVER
// ============================================================================

const (
	// ServerRead is the HTTP server read timeout (15s).
	ServerRead = 15 * time.Second

	// ServerWrite is the HTTP server write timeout (60s).
	ServerWrite = 60 * time.Second

	// ServerShutdown bounds graceful shutdown (10s).
	ServerShutdown = 10 * time.Second

	// LimiterIdle is how long an idle client's rate limiter is kept (10min).
	LimiterIdle = 10 * time.Minute
)

// ============================================================================
// HOOKS
// ============================================================================

const (
	// WebhookTimeout is the timeout for webhook requests (10s).
	WebhookTimeout = 10 * time.Second

	// WebhookShutdown bounds hook shutdown and flushes (5s).
	WebhookShutdown = 5 * time.Second

	// NATSReconnectWait is the delay between NATS reconnect attempts (2s).
	NATSReconnectWait = 2 * time.Second
)
