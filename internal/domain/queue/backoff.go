package queue

import (
	"math/rand"
	"time"
)

// Backoff policy for retryable failures: exponential from a 30s base, capped
// at one hour, with up to ±20% jitter so a burst of failing jobs does not
// come due again in the same dispatcher tick.
const (
	BaseBackoff   = 30 * time.Second
	MaxBackoff    = time.Hour
	JitterPercent = 20
)

// NextBackoff returns the delay before the given attempt is retried.
// attempt is 1-based: the delay after the first failure is ~30s.
func NextBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	// Shift overflows quickly; clamp before multiplying.
	shift := uint(attempt - 1)
	if shift > 12 {
		shift = 12
	}
	d := BaseBackoff * time.Duration(1<<shift)
	if d > MaxBackoff {
		d = MaxBackoff
	}

	jitterRange := int64(d) * JitterPercent / 100
	if jitterRange > 0 {
		d += time.Duration(rand.Int63n(2*jitterRange) - jitterRange)
	}
	return d
}
