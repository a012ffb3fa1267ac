package api

import (
	"sync"
	"time"
)

// rateLimiter implements a token bucket rate limiter per client IP
type rateLimiter struct {
	visitors        map[string]*visitor
	mu              sync.RWMutex
	rate            int // requests per second
	burst           int // burst capacity
	cleanupInterval time.Duration
	stopCh          chan struct{}
	wg              sync.WaitGroup
}

// visitor tracks rate limit state for a single IP
type visitor struct {
	limiter  *tokenBucket
	lastSeen time.Time
}

// tokenBucket implements token bucket algorithm for rate limiting
type tokenBucket struct {
	tokens     float64
	capacity   float64
	refillRate float64
	lastRefill time.Time
	mu         sync.Mutex
}

// newRateLimiter creates a new rate limiter
// rate: requests per second, burst: maximum burst size
func newRateLimiter(rate, burst int) *rateLimiter {
	rl := &rateLimiter{
		visitors:        make(map[string]*visitor),
		rate:            rate,
		burst:           burst,
		cleanupInterval: 5 * time.Minute,
		stopCh:          make(chan struct{}),
	}

	rl.wg.Add(1)
	go rl.cleanupVisitors()

	return rl
}

// stop terminates the cleanup goroutine and waits for it to finish
func (rl *rateLimiter) stop() {
	close(rl.stopCh)
	rl.wg.Wait()
}

// allow checks if request from this IP should be allowed
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.RLock()
	v, exists := rl.visitors[ip]
	rl.mu.RUnlock()

	if !exists {
		rl.mu.Lock()
		// Check again after acquiring write lock (double-checked locking)
		v, exists = rl.visitors[ip]
		if !exists {
			v = &visitor{
				limiter:  newTokenBucket(float64(rl.rate), rl.burst),
				lastSeen: time.Now(),
			}
			rl.visitors[ip] = v
		}
		rl.mu.Unlock()
	}

	v.lastSeen = time.Now()
	return v.limiter.allow()
}

// cleanupVisitors removes stale visitor entries
func (rl *rateLimiter) cleanupVisitors() {
	defer rl.wg.Done()

	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			rl.mu.Lock()
			for ip, v := range rl.visitors {
				if time.Since(v.lastSeen) > 10*time.Minute {
					delete(rl.visitors, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// newTokenBucket creates a new token bucket
func newTokenBucket(refillRate float64, capacity int) *tokenBucket {
	return &tokenBucket{
		tokens:     float64(capacity),
		capacity:   float64(capacity),
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// allow checks if a token can be consumed (request allowed)
func (tb *tokenBucket) allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()

	tb.tokens += elapsed * tb.refillRate
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}
	tb.lastRefill = now

	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return true
	}

	return false
}
