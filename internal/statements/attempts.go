package statements

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const attemptCacheSize = 10_000

// attemptLimiter counts failed passcode attempts per statement. Entries expire
// after the passcode lifetime, so a lockout never outlives the code it guards.
type attemptLimiter struct {
	mu    sync.Mutex
	limit int
	cache *expirable.LRU[string, int]
}

func newAttemptLimiter(limit int, ttl time.Duration) *attemptLimiter {
	return &attemptLimiter{
		limit: limit,
		cache: expirable.NewLRU[string, int](attemptCacheSize, nil, ttl),
	}
}

func (a *attemptLimiter) Blocked(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	n, _ := a.cache.Get(id)
	return n >= a.limit
}

// Attempt runs match for id while holding the limiter, recording a failure
// when it reports false. Once the limit is reached match is not run at all.
func (a *attemptLimiter) Attempt(id string, match func() bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	n, _ := a.cache.Get(id)
	if n >= a.limit {
		return ErrTooManyAttempts
	}

	if !match() {
		a.cache.Add(id, n+1)
		return ErrInvalidOTP
	}

	return nil
}

func (a *attemptLimiter) Reset(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.cache.Remove(id)
}
