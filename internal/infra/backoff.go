package infra

import (
	"math/rand/v2"
	"time"
)

const (
	backoffBase = 1 * time.Second
	backoffMax  = 60 * time.Second
)

// CalculateBackoff returns the reconnect delay for the given attempt:
// exponential from one second, capped at a minute, with up to 20% jitter.
func CalculateBackoff(retry int) time.Duration {
	if retry < 0 {
		retry = 0
	}
	delay := backoffMax
	if retry < 7 {
		delay = backoffBase << uint(retry)
		if delay > backoffMax {
			delay = backoffMax
		}
	}
	jitter := time.Duration(rand.Int64N(int64(delay)/5 + 1))
	return delay - jitter
}
