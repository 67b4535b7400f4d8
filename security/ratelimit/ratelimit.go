package ratelimit

import (
	"sync"
	"time"

	"github.com/starnotary/notary/exception"
	"github.com/starnotary/notary/logx"
	"golang.org/x/time/rate"
)

type RateLimiterConfig struct {
	RequestsPerSecond float64
	Burst             int
	IdleTimeout       time.Duration
	CleanupInterval   time.Duration
}

func DefaultConfig() *RateLimiterConfig {
	return &RateLimiterConfig{
		RequestsPerSecond: 5,
		Burst:             10,
		IdleTimeout:       10 * time.Minute,
		CleanupInterval:   5 * time.Minute, // cleanup every 5 minutes
	}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per key, typically a client IP.
type RateLimiter struct {
	config      *RateLimiterConfig
	limiters    map[string]*limiterEntry
	mu          sync.Mutex
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

func NewRateLimiter(config *RateLimiterConfig) *RateLimiter {
	if config == nil {
		config = DefaultConfig()
	}

	rl := &RateLimiter{
		config:      config,
		limiters:    make(map[string]*limiterEntry),
		stopCleanup: make(chan struct{}),
	}

	exception.SafeGo("RateLimiterCleanup", rl.cleanupExpiredEntries)

	return rl
}

// Allow reports whether a request from key may proceed now.
func (rl *RateLimiter) Allow(key string) bool {
	now := time.Now()

	rl.mu.Lock()
	entry, exists := rl.limiters[key]
	if !exists {
		entry = &limiterEntry{
			limiter: rate.NewLimiter(rate.Limit(rl.config.RequestsPerSecond), rl.config.Burst),
		}
		rl.limiters[key] = entry
	}
	entry.lastSeen = now
	rl.mu.Unlock()

	if !entry.limiter.AllowN(now, 1) {
		logx.Warn("RATELIMIT", "Request rejected for key:", key)
		return false
	}
	return true
}

func (rl *RateLimiter) cleanupExpiredEntries() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup(time.Now())
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *RateLimiter) cleanup(now time.Time) {
	cutoff := now.Add(-rl.config.IdleTimeout)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, entry := range rl.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.limiters, key)
		}
	}
}

// Size returns the number of tracked keys.
func (rl *RateLimiter) Size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stopCleanup)
	})
}
