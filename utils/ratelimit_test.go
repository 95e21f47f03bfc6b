package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryRateLimiterAdmitsUpToLimit(t *testing.T) {
	limiter := NewMemoryRateLimiter()

	for i := 0; i < 10; i++ {
		allowed, _ := limiter.Admit("submit:form:1.2.3.4", 10, time.Minute)
		assert.True(t, allowed, "admission %d should be allowed", i+1)
	}

	allowed, resetIn := limiter.Admit("submit:form:1.2.3.4", 10, time.Minute)
	assert.False(t, allowed)
	assert.Greater(t, resetIn, time.Duration(0))
	assert.LessOrEqual(t, RetryAfterSeconds(resetIn), 60)
}

func TestMemoryRateLimiterKeysAreIndependent(t *testing.T) {
	limiter := NewMemoryRateLimiter()

	for i := 0; i < 10; i++ {
		limiter.Admit("submit:form:1.2.3.4", 10, time.Minute)
	}

	allowed, _ := limiter.Admit("submit:form:5.6.7.8", 10, time.Minute)
	assert.True(t, allowed, "a different client is not affected")
	allowed, _ = limiter.Admit("submit:other:1.2.3.4", 10, time.Minute)
	assert.True(t, allowed, "a different form is not affected")
}

func TestMemoryRateLimiterWindowRollover(t *testing.T) {
	now := time.Now()
	limiter := NewMemoryRateLimiter()
	limiter.now = func() time.Time { return now }

	for i := 0; i < 10; i++ {
		limiter.Admit("key", 10, time.Minute)
	}
	allowed, _ := limiter.Admit("key", 10, time.Minute)
	assert.False(t, allowed)

	now = now.Add(61 * time.Second)
	allowed, resetIn := limiter.Admit("key", 10, time.Minute)
	assert.True(t, allowed, "a fresh window admits again")
	assert.Equal(t, time.Duration(0), resetIn)
}

func TestMemoryRateLimiterCleanup(t *testing.T) {
	now := time.Now()
	limiter := NewMemoryRateLimiter()
	limiter.now = func() time.Time { return now }

	limiter.Admit("old", 10, time.Minute)
	now = now.Add(2 * time.Minute)
	limiter.Admit("fresh", 10, time.Minute)

	limiter.Cleanup(time.Minute)

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	assert.NotContains(t, limiter.entries, "old")
	assert.Contains(t, limiter.entries, "fresh")
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, 1, RetryAfterSeconds(0))
	assert.Equal(t, 1, RetryAfterSeconds(200*time.Millisecond))
	assert.Equal(t, 2, RetryAfterSeconds(1200*time.Millisecond))
	assert.Equal(t, 60, RetryAfterSeconds(time.Minute))
}
