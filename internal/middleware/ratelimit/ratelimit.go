// Package ratelimit provides a fixed-window per-IP request limiter.
package ratelimit

import (
	"net/http"
	"sync"
	"time"
)

// Config holds limiter settings.
type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
}

// DefaultConfig returns the limits used in production.
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		CleanupInterval:   5 * time.Minute,
	}
}

// Limiter tracks request counts per client IP over one-minute windows.
type Limiter struct {
	mu       sync.Mutex
	clients  map[string]*clientWindow
	perMin   int
	stopCh   chan struct{}
	stopOnce sync.Once
}

type clientWindow struct {
	lastRequest time.Time
	requests    int
}

// NewLimiter starts a limiter with a background cleanup loop for stale
// client entries.
func NewLimiter(config Config) *Limiter {
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = DefaultConfig().RequestsPerMinute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultConfig().CleanupInterval
	}
	l := &Limiter{
		clients: make(map[string]*clientWindow),
		perMin:  config.RequestsPerMinute,
		stopCh:  make(chan struct{}),
	}
	go l.cleanupLoop(config.CleanupInterval)
	return l
}

// Allow reports whether another request from clientIP fits in the current
// window. The window resets one minute after the client's last request.
func (l *Limiter) Allow(clientIP string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	c, ok := l.clients[clientIP]
	if !ok || now.Sub(c.lastRequest) > time.Minute {
		l.clients[clientIP] = &clientWindow{lastRequest: now, requests: 1}
		return true
	}

	c.requests++
	c.lastRequest = now
	return c.requests <= l.perMin
}

// ActiveClients returns the number of currently tracked clients.
func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// Stop shuts down the cleanup goroutine. Safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

func (l *Limiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.removeStale()
		case <-l.stopCh:
			return
		}
	}
}

func (l *Limiter) removeStale() {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, c := range l.clients {
		if c.lastRequest.Before(cutoff) {
			delete(l.clients, ip)
		}
	}
}

// Handler wraps next with the limiter. extractIP resolves the client
// address; over-limit requests get 429 with a Retry-After hint.
func (l *Limiter) Handler(extractIP func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(extractIP(r)) {
				w.Header().Set("Retry-After", "60")
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
