package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/go-github/v57/github"
)

// RetryConfig bounds the gateway's internal retry policy for REST
// calls.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: time.Second,
		MaxBackoff:     30 * time.Second,
	}
}

// withRetry runs a REST operation with bounded exponential backoff.
// Rate-limited responses wait for the advertised reset instead of the
// exponential schedule.
func (g *GitHub) withRetry(ctx context.Context, operation func() (*github.Response, error)) error {
	var lastErr error
	backoff := g.retry.InitialBackoff

	for attempt := 0; attempt <= g.retry.MaxRetries; attempt++ {
		resp, err := operation()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(resp) {
			return err
		}

		if attempt == g.retry.MaxRetries {
			break
		}

		wait := backoff
		if isRateLimited(resp) {
			wait = rateLimitBackoff(resp, g.retry.MaxBackoff)
		}

		slog.Debug("Retrying GitHub API call", "attempt", attempt+1, "wait", wait, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		backoff *= 2
		if backoff > g.retry.MaxBackoff {
			backoff = g.retry.MaxBackoff
		}
	}

	return fmt.Errorf("GitHub API call failed after %d retries: %w", g.retry.MaxRetries, lastErr)
}

// isRetryable reports whether a failed call is worth repeating: rate
// limits, server errors, and transport failures without a response.
func isRetryable(resp *github.Response) bool {
	if resp == nil || resp.Response == nil {
		return true
	}

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return true
	case http.StatusForbidden:
		// Secondary rate limits report 403 with rate headers set.
		return resp.Rate.Limit > 0
	}

	return resp.StatusCode >= 500
}

func isRateLimited(resp *github.Response) bool {
	if resp == nil || resp.Response == nil {
		return false
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return true
	}

	return resp.StatusCode == http.StatusForbidden && resp.Rate.Limit > 0
}

// rateLimitBackoff waits until just past the advertised reset time.
func rateLimitBackoff(resp *github.Response, maxBackoff time.Duration) time.Duration {
	wait := time.Until(resp.Rate.Reset.Time) + time.Second

	if wait < time.Second {
		wait = time.Second
	}
	if wait > maxBackoff {
		wait = maxBackoff
	}

	return wait
}
