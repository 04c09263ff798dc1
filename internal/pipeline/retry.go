package pipeline

import (
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryPolicy bounds the per-chunk retry loop. The wait after the k-th failed
// attempt is BaseWait*2^(k-1), capped at MaxWait.
type RetryPolicy struct {
	BaseWait time.Duration
	MaxWait  time.Duration
}

// DefaultRetryPolicy waits 2s, 4s, 8s, ... and never more than 10s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		BaseWait: 2 * time.Second,
		MaxWait:  10 * time.Second,
	}
}

// backoff builds a fresh go-retry backoff allowing maxRetries retries.
// Backoffs are stateful, so each chunk needs its own.
func (p RetryPolicy) backoff(maxRetries int) retry.Backoff {
	b := retry.NewExponential(p.BaseWait)
	b = retry.WithCappedDuration(p.MaxWait, b)
	return retry.WithMaxRetries(uint64(max(maxRetries, 0)), b)
}

// Wait returns the delay that follows the given failed attempt (1-indexed).
func (p RetryPolicy) Wait(failedAttempt int) time.Duration {
	if failedAttempt < 1 {
		failedAttempt = 1
	}
	d := p.BaseWait
	for i := 1; i < failedAttempt && d < p.MaxWait; i++ {
		d *= 2
	}
	return min(d, p.MaxWait)
}
