// Package ratelimit bounds how fast a single client can create shared
// scenes. Every share pushes image payloads to the external asset
// store, so the create path is the only one worth limiting.
package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// Limiter tracks one token bucket per client.
type Limiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
}

// NewLimiter creates a limiter allowing requestsPerHour sustained
// requests per client with the given burst.
func NewLimiter(requestsPerHour, burst int) *Limiter {
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(float64(requestsPerHour) / 3600.0),
		burst:    burst,
	}
}

func (l *Limiter) limiter(client string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[client]
	if !ok {
		lim = rate.NewLimiter(l.rate, l.burst)
		l.limiters[client] = lim
	}
	return lim
}

// Allow reports whether the client may make a request now.
func (l *Limiter) Allow(client string) bool {
	return l.limiter(client).Allow()
}

// Tokens returns the client's currently available tokens.
func (l *Limiter) Tokens(client string) float64 {
	return l.limiter(client).Tokens()
}
