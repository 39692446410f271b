// Package retry runs collaborator calls with bounded backoff. It is a thin
// layer over github.com/cenkalti/backoff/v5 that fixes the module's retry
// defaults and adds HTTP status classification.
//
// Usage:
//
//	err := retry.Do(ctx, retry.DefaultConfig(), func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return err
//	    }
//	    defer resp.Body.Close()
//	    return retry.HTTPStatus(resp.StatusCode)
//	})
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/vareport/vareport/pkg/defaults"
	"github.com/vareport/vareport/pkg/duration"
)

// Strategy defines the backoff algorithm.
type Strategy int

const (
	// Exponential doubles the delay each attempt: 1s, 2s, 4s, ...
	Exponential Strategy = iota
	// Constant uses the same delay between every attempt.
	Constant
)

// Config controls retry behaviour.
type Config struct {
	Retries   int           // Retries after the first attempt. 0 means one attempt.
	InitDelay time.Duration // Delay before the first retry.
	MaxDelay  time.Duration // Upper bound on any single delay.
	Strategy  Strategy      // Backoff algorithm.
	Jitter    bool          // Randomize each delay by ±25%.

	// OnRetry, when set, is called before each sleep with the error that
	// caused the retry and the delay about to be waited.
	OnRetry func(err error, next time.Duration)
}

// DefaultConfig returns three retries with exponential backoff from
// duration.RetryFast up to duration.RetryMax, with jitter.
func DefaultConfig() Config {
	return Config{
		Retries:   defaults.RetryMedium,
		InitDelay: duration.RetryFast,
		MaxDelay:  duration.RetryMax,
		Strategy:  Exponential,
		Jitter:    true,
	}
}

// Stop wraps err so that Do returns it without further retries.
// Use this when the caller knows the error is permanent (e.g. 4xx HTTP status).
func Stop(err error) error {
	return backoff.Permanent(err)
}

// Do executes fn until it succeeds, returns a Stop error, the retries are
// used up or ctx is done. It returns the last error from fn, or the
// context's error when cancelled while waiting.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	_, err := Value(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// Value is Do for operations that produce a result.
func Value[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, err
	}
	opts := []backoff.RetryOption{
		backoff.WithBackOff(cfg.backOff()),
		backoff.WithMaxTries(uint(max(cfg.Retries, 0) + 1)),
	}
	if cfg.OnRetry != nil {
		opts = append(opts, backoff.WithNotify(cfg.OnRetry))
	}
	return backoff.Retry(ctx, fn, opts...)
}

func (cfg Config) backOff() backoff.BackOff {
	if cfg.Strategy == Constant {
		return backoff.NewConstantBackOff(cfg.InitDelay)
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.InitDelay
	b.MaxInterval = cfg.MaxDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	if cfg.Jitter {
		b.RandomizationFactor = 0.25
	}
	b.Reset()
	return b
}

// CalcDelay computes the un-jittered delay before retry number attempt
// (0-indexed).
func CalcDelay(cfg Config, attempt int) time.Duration {
	delay := cfg.InitDelay
	if cfg.Strategy == Exponential {
		for i := 0; i < attempt && delay < cfg.MaxDelay; i++ {
			delay *= 2
		}
	}
	if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}
	return delay
}
