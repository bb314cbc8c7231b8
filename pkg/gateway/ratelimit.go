package gateway

import (
	"sync"
	"time"
)

// tokenBucket is a minimal fixed-window token bucket: burst tokens refill
// fully every window. No ecosystem rate limiter appeared anywhere in the
// reference pack (see DESIGN.md), so this stays on the standard library.
type tokenBucket struct {
	mu       sync.Mutex
	tokens   int
	burst    int
	window   time.Duration
	lastFill time.Time
}

func newTokenBucket(burst int, window time.Duration) *tokenBucket {
	return &tokenBucket{tokens: burst, burst: burst, window: window, lastFill: time.Now()}
}

// Allow reports whether the caller may proceed, consuming one token if so.
func (b *tokenBucket) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if now := time.Now(); now.Sub(b.lastFill) >= b.window {
		b.tokens = b.burst
		b.lastFill = now
	}
	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}
