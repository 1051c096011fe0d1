package http

import (
	"sync"
	"time"
)

const (
	writeLimitPerMinute = 60
	staleClientAge      = 10 * time.Minute
)

// rateLimiter caps write requests per client IP with a fixed one-minute
// window. State is in-memory; restarts reset all counters.
type rateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*clientWindow
	stop     chan struct{}
	stopOnce sync.Once
}

type clientWindow struct {
	windowStart time.Time
	count       int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients: make(map[string]*clientWindow),
		stop:    make(chan struct{}),
	}
	go rl.evictLoop()
	return rl
}

// allow reports whether another write from clientIP fits in the current
// minute window.
func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cw := rl.clients[clientIP]
	if cw == nil || now.Sub(cw.windowStart) > time.Minute {
		rl.clients[clientIP] = &clientWindow{windowStart: now, count: 1}
		return true
	}

	cw.count++
	return cw.count <= writeLimitPerMinute
}

// evictLoop drops clients that have been idle long enough that their window
// no longer matters.
func (rl *rateLimiter) evictLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			cutoff := time.Now().Add(-staleClientAge)
			for ip, cw := range rl.clients {
				if cw.windowStart.Before(cutoff) {
					delete(rl.clients, ip)
				}
			}
			rl.mu.Unlock()
		case <-rl.stop:
			return
		}
	}
}

func (rl *rateLimiter) stopCleanup() {
	rl.stopOnce.Do(func() {
		close(rl.stop)
	})
}
