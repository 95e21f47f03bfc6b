package utils

import (
	"sync"
	"time"
)

// RateLimiter admits or rejects an action for a key within a rolling
// window. Implementations are best-effort: limiting is spam mitigation,
// not a security boundary.
type RateLimiter interface {
	Admit(key string, limit int, window time.Duration) (allowed bool, resetIn time.Duration)
}

type rateLimitEntry struct {
	count       int
	windowStart time.Time
}

// MemoryRateLimiter keeps windowed counters in process memory. Entries
// expire by window rollover; state is lost on restart.
type MemoryRateLimiter struct {
	mu      sync.Mutex
	entries map[string]*rateLimitEntry
	now     func() time.Time
}

func NewMemoryRateLimiter() *MemoryRateLimiter {
	return &MemoryRateLimiter{
		entries: make(map[string]*rateLimitEntry),
		now:     time.Now,
	}
}

func (l *MemoryRateLimiter) Admit(key string, limit int, window time.Duration) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.entries[key]
	if !ok || now.Sub(entry.windowStart) >= window {
		l.entries[key] = &rateLimitEntry{count: 1, windowStart: now}
		return true, 0
	}

	resetIn := window - now.Sub(entry.windowStart)
	if entry.count >= limit {
		return false, resetIn
	}

	entry.count++
	return true, resetIn
}

// Cleanup drops entries whose window has already rolled over. Called
// periodically from main so the map does not grow unbounded.
func (l *MemoryRateLimiter) Cleanup(window time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, entry := range l.entries {
		if now.Sub(entry.windowStart) >= window {
			delete(l.entries, key)
		}
	}
}

// RetryAfterSeconds converts a reset duration to whole seconds, rounding
// up so the client never retries early.
func RetryAfterSeconds(resetIn time.Duration) int {
	secs := int((resetIn + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
