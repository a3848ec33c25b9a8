package feed

import (
	"math"
	"math/rand"
	"time"
)

const (
	backoffBase = 500 * time.Millisecond
	backoffCap  = 30 * time.Second
)

// Backoff is the reconnect delay after the given number of consecutive failures.
// attempt=0 => 500ms, attempt=1 => 1s, attempt=2 => 2s, capped at 30s.
func Backoff(attempt int) time.Duration {
	multiple := math.Pow(2, float64(attempt))
	delay := time.Duration(float64(backoffBase) * multiple)

	if delay > backoffCap || delay <= 0 {
		delay = backoffCap
	}

	// small jitter (0-250ms) so reconnecting subscribers do not line up
	delay += time.Duration(rand.Intn(250)) * time.Millisecond
	return delay
}
