package service

import (
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	defaultRetryBase  = time.Second
	defaultMaxBackoff = 5 * time.Minute
)

// backoffDelay returns the capped exponential delay before retry number
// attempt (1-based).
func backoffDelay(base, limit time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = defaultRetryBase
	}
	if limit <= 0 {
		limit = defaultMaxBackoff
	}

	b := retry.WithCappedDuration(limit, retry.NewExponential(base))

	delay := base
	for i := 0; i < max(attempt, 1); i++ {
		next, stop := b.Next()
		if stop {
			break
		}
		delay = next
		if delay >= limit {
			break
		}
	}
	return delay
}
