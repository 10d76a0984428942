package fetchlimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter throttles outbound page fetches, grounded on the teacher's
// EventSubscriber throttlers (internal/handlers/websocket_events.go),
// which use the same golang.org/x/time/rate package for per-event-type
// throttling; here it gates a shared resource (network egress) instead of
// a broadcast channel.
type Limiter struct {
	rl *rate.Limiter
}

// New builds a Limiter allowing requestsPerSecond sustained, absorbing
// bursts up to burst.
func New(requestsPerSecond float64, burst int) *Limiter {
	return &Limiter{rl: rate.NewLimiter(rate.Limit(requestsPerSecond), burst)}
}

// Wait blocks until a fetch token is available or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.rl.Wait(ctx)
}

// Allow reports whether a fetch may proceed immediately, without blocking.
func (l *Limiter) Allow() bool {
	return l.rl.Allow()
}
