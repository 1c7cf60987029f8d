package pipeline

import (
	"context"
	"math/rand"
	"time"

	"github.com/Lacoz/virta/verr"
)

// RetryPolicy configures automatic retry of a failing step. Per spec
// §4.2, retry is composed at registration time as a wrapper around the
// step, not baked into the runner — the runner always sees a single
// logical execution, successful or not.
type RetryPolicy struct {
	// MaxAttempts is the maximum number of executions, including the
	// first. Must be >= 1; 1 means no retries.
	MaxAttempts int

	// BaseDelay and MaxDelay bound the exponential backoff: delay =
	// min(BaseDelay*2^attempt, MaxDelay) + jitter(0, BaseDelay).
	BaseDelay time.Duration
	MaxDelay  time.Duration

	// Retryable decides whether a given error should trigger another
	// attempt. A nil Retryable treats every error as non-retryable,
	// which makes the policy a no-op.
	Retryable func(error) bool

	// Metrics and RunID, when both set, record each retry attempt
	// against RunnerMetrics.incRetries — the same handle Run's own
	// RunOptions.Metrics would receive for a given run.
	Metrics *RunnerMetrics
	RunID   string
}

// Validate mirrors the teacher's RetryPolicy.Validate (graph/policy.go):
// MaxAttempts must be positive, and when both delays are set MaxDelay
// must not be smaller than BaseDelay.
func (p *RetryPolicy) Validate() error {
	if p.MaxAttempts < 1 {
		return verr.New(verr.KindInvalidRetryPolicy, "MaxAttempts must be >= 1", "")
	}
	if p.MaxDelay > 0 && p.BaseDelay > 0 && p.MaxDelay < p.BaseDelay {
		return verr.New(verr.KindInvalidRetryPolicy, "MaxDelay must be >= BaseDelay", "")
	}
	return nil
}

// computeBackoff calculates the delay before the given zero-based retry
// attempt, using exponential backoff with jitter. Ported from the
// teacher's graph/policy.go computeBackoff.
func computeBackoff(attempt int, base, maxDelay time.Duration, rng *rand.Rand) time.Duration {
	if base <= 0 {
		return 0
	}
	delay := base * (1 << attempt)
	if maxDelay > 0 && delay > maxDelay {
		delay = maxDelay
	}
	var jitter time.Duration
	if rng != nil {
		jitter = time.Duration(rng.Int63n(int64(base)))
	} else {
		jitter = time.Duration(rand.Int63n(int64(base))) // #nosec G404 -- retry jitter, not security sensitive
	}
	return delay + jitter
}

// Retry wraps step with automatic retry per policy, returning a Step
// suitable for Definition.Add. The wrapper is the only place retry logic
// lives: the scheduler and leveler never see a retried step as anything
// but a single Step.
func Retry(step Step, policy RetryPolicy) Step {
	return StepFunc(func(ctx context.Context, c *Context) error {
		maxAttempts := policy.MaxAttempts
		if maxAttempts < 1 {
			maxAttempts = 1
		}
		var lastErr error
		for attempt := 0; attempt < maxAttempts; attempt++ {
			if attempt > 0 {
				policy.Metrics.incRetries(policy.RunID)
				delay := computeBackoff(attempt-1, policy.BaseDelay, policy.MaxDelay, nil)
				if delay > 0 {
					timer := time.NewTimer(delay)
					select {
					case <-ctx.Done():
						timer.Stop()
						return ctx.Err()
					case <-timer.C:
					}
				}
			}
			lastErr = step.Run(ctx, c)
			if lastErr == nil {
				return nil
			}
			if policy.Retryable == nil || !policy.Retryable(lastErr) {
				return lastErr
			}
		}
		return lastErr
	})
}
