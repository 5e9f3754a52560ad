package queue

import (
	"math/rand"
	"time"
)

// PollDelay returns how long a worker waits after its idle-th consecutive
// empty pop. The wait starts at a tenth of limit, doubles per idle pop, is
// capped at limit and carries up to a tenth of limit of jitter.
func PollDelay(limit time.Duration, idle int) time.Duration {
	if limit <= 0 {
		return 0
	}
	base := limit / 10
	if base <= 0 {
		base = limit
	}
	if idle > 16 {
		idle = 16
	}
	if idle < 0 {
		idle = 0
	}
	delay := base * (1 << idle)
	if delay > limit {
		delay = limit
	}
	jitter := time.Duration(rand.Int63n(int64(base)))
	return delay + jitter
}
