package benchseed

import (
	"slices"
	"time"

	"github.com/petrijr/benchseed/internal/seed"
)

// RetryBuilder assembles the RetryPolicy a Driver applies when a handler
// fails. Every method returns a modified copy.
//
//	policy := benchseed.Retry(5).
//		WithExponentialBackoff(500*time.Millisecond, 2, 10*time.Second).
//		ExceptReasons(benchseed.PermanentReasons...).
//		Policy()
type RetryBuilder struct {
	policy RetryPolicy
}

// PermanentReasons are the built-in handler reasons that re-issuing a call
// cannot fix.
var PermanentReasons = slices.Clone(seed.PermanentReasons)

// Retry starts a policy allowing attempts calls per request, the first one
// included. Values below 1 mean a single attempt.
func Retry(attempts int) RetryBuilder {
	return RetryBuilder{policy: RetryPolicy{MaxAttempts: max(attempts, 1)}}
}

// DefaultRetry is Retry(attempts) with a constant delay that skips the
// built-in permanent reasons.
func DefaultRetry(attempts int, delay time.Duration) RetryBuilder {
	return Retry(attempts).WithConstantBackoff(delay).ExceptReasons(PermanentReasons...)
}

func (r RetryBuilder) with(fn func(p *RetryPolicy)) RetryBuilder {
	p := r.policy
	p.Permanent = slices.Clone(p.Permanent)
	fn(&p)
	return RetryBuilder{policy: p}
}

// WithExponentialBackoff waits initial before the first retry and
// multiplies the wait by multiplier (2 when <= 0) for each later one, up
// to ceiling when ceiling > 0.
func (r RetryBuilder) WithExponentialBackoff(initial time.Duration, multiplier float64, ceiling time.Duration) RetryBuilder {
	if multiplier <= 0 {
		multiplier = 2
	}
	return r.with(func(p *RetryPolicy) {
		p.Backoff, p.BackoffMultiplier, p.MaxBackoff = initial, multiplier, ceiling
	})
}

// WithConstantBackoff waits delay before every retry.
func (r RetryBuilder) WithConstantBackoff(delay time.Duration) RetryBuilder {
	return r.with(func(p *RetryPolicy) {
		p.Backoff, p.BackoffMultiplier, p.MaxBackoff = delay, 1, 0
	})
}

// Immediate retries without waiting.
func (r RetryBuilder) Immediate() RetryBuilder {
	return r.with(func(p *RetryPolicy) {
		p.Backoff, p.BackoffMultiplier, p.MaxBackoff = 0, 0, 0
	})
}

// ExceptReasons marks handler reasons that fail the run on the first
// occurrence. Reasons accumulate across calls.
func (r RetryBuilder) ExceptReasons(reasons ...string) RetryBuilder {
	return r.with(func(p *RetryPolicy) {
		for _, reason := range reasons {
			if reason != "" && !slices.Contains(p.Permanent, reason) {
				p.Permanent = append(p.Permanent, reason)
			}
		}
	})
}

// Policy returns the assembled policy, ready for DriverConfig.Retry.
func (r RetryBuilder) Policy() RetryPolicy {
	return r.with(func(*RetryPolicy) {}).policy
}
