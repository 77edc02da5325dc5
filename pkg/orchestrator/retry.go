// Package orchestrator walks an ordered provider chain for one request,
// retrying rate-limited calls and falling back across providers until
// one succeeds.
package orchestrator

import (
	"context"
	"time"

	"github.com/zen-systems/triagegate/pkg/provider"
)

// RetryPolicy bounds retries of a single provider call. Only
// rate-limiting is treated as transient; every other failure kind
// propagates immediately.
type RetryPolicy struct {
	// MaxAttempts is the total number of calls, first attempt included.
	MaxAttempts int

	// Backoff holds the delay before the second, third, ... attempt.
	// A schedule shorter than MaxAttempts-1 repeats its last entry.
	Backoff []time.Duration
}

// DefaultRetryPolicy matches the rate-limit handling the providers
// expect: three attempts with 2s and 5s pauses between them.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff:     []time.Duration{2 * time.Second, 5 * time.Second, 9 * time.Second},
	}
}

// MaxDelay reports the total backoff time a full retry cycle can spend
// sleeping. Callers sizing an overall deadline must budget at least
// this plus the per-attempt timeouts.
func (p RetryPolicy) MaxDelay() time.Duration {
	var total time.Duration
	for i := 1; i < p.MaxAttempts; i++ {
		total += p.delay(i)
	}
	return total
}

// Do runs fn under the policy. The context governs both the calls and
// the backoff sleeps; cancellation aborts mid-wait.
func (p RetryPolicy) Do(ctx context.Context, name string, fn func(context.Context) (string, error)) (string, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		text, err := fn(ctx)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if !provider.IsRateLimited(err) {
			return "", err
		}
		if attempt == attempts {
			break
		}
		if err := sleepWithContext(ctx, p.delay(attempt)); err != nil {
			return "", provider.NewError(name, provider.KindUnreachable, err)
		}
	}
	return "", provider.NewError(name, provider.KindExhaustedRetries, lastErr)
}

// delay returns the pause after the nth failed attempt.
func (p RetryPolicy) delay(attempt int) time.Duration {
	if len(p.Backoff) == 0 {
		return 0
	}
	if attempt > len(p.Backoff) {
		attempt = len(p.Backoff)
	}
	return p.Backoff[attempt-1]
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
