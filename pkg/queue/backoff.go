package queue

import "time"

const (
	// DefaultBaseDelay is the first retry delay
	DefaultBaseDelay = 5 * time.Second
	// DefaultMaxDelay caps the exponential growth
	DefaultMaxDelay = 5 * time.Minute
	// DefaultMaxRetries is the per-entry retry budget
	DefaultMaxRetries = 5
)

// NextDelay returns the wait before attempt retryCount+1: base doubled per
// completed retry, capped at max. Pure, so the scheduler can be driven
// synchronously in tests.
func NextDelay(retryCount int, base, max time.Duration) time.Duration {
	if base <= 0 {
		base = DefaultBaseDelay
	}
	if max <= 0 {
		max = DefaultMaxDelay
	}

	delay := base
	for i := 0; i < retryCount; i++ {
		delay *= 2
		if delay >= max {
			return max
		}
	}
	if delay > max {
		return max
	}
	return delay
}
