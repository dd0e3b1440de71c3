package stream

import (
	"math/rand"
	"time"
)

const (
	defaultBackoffBase   = 500 * time.Millisecond
	defaultBackoffMax    = 8 * time.Second
	defaultBackoffJitter = 0.2
	defaultMaxReconnects = 8
)

// ComputeBackoff returns the delay before reconnect attempt retryCount
// (0-based), doubling from base up to max with +-jitterFrac jitter.
func ComputeBackoff(retryCount int, base, max time.Duration, jitterFrac float64) time.Duration {
	if base <= 0 {
		return 0
	}
	delay := base
	for i := 0; i < retryCount; i++ {
		if max > 0 && delay >= max {
			delay = max
			break
		}
		if max > 0 && delay > max/2 {
			delay = max
			break
		}
		delay *= 2
	}
	if max > 0 && delay > max {
		delay = max
	}
	if jitterFrac > 0 {
		spread := float64(delay) * jitterFrac
		delay += time.Duration((rand.Float64()*2 - 1) * spread)
		if delay < 0 {
			delay = 0
		}
	}
	return delay
}
