package infra

import "time"

const (
	baseDelay = 1 * time.Second
	maxDelay  = 60 * time.Second
)

// CalculateBackoff returns the reconnect delay for the given retry
// count: exponential from 1s, capped at 60s.
func CalculateBackoff(retryCount int) time.Duration {
	if retryCount <= 0 {
		return baseDelay
	}

	delay := baseDelay
	for i := 0; i < retryCount; i++ {
		delay *= 2
		if delay >= maxDelay {
			return maxDelay
		}
	}
	return delay
}
