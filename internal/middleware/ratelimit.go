package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// trackLimiter caps tracking requests per client IP within a rolling
// window. This guards the public event endpoints against a single noisy
// client; plan-level quotas are enforced separately per owner.
type trackLimiter struct {
	mu          sync.Mutex
	windows     map[string]*clientWindow
	maxRequests int
	window      time.Duration
}

// clientWindow tracks one IP's request count within the current window.
type clientWindow struct {
	count     int
	expiresAt time.Time
}

// RateLimiter returns the per-IP limiting middleware. The sweeper
// goroutine that evicts expired windows runs until done is closed.
func RateLimiter(maxRequests int, window time.Duration, done <-chan struct{}) gin.HandlerFunc {
	l := &trackLimiter{
		windows:     make(map[string]*clientWindow),
		maxRequests: maxRequests,
		window:      window,
	}
	go l.sweep(done)

	return func(c *gin.Context) {
		if !l.allow(clientIP(c)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}

// allow counts one request for the client and reports whether it fits in
// the current window.
func (l *trackLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	entry, ok := l.windows[ip]
	if !ok || now.After(entry.expiresAt) {
		l.windows[ip] = &clientWindow{count: 1, expiresAt: now.Add(l.window)}
		return true
	}

	entry.count++
	return entry.count <= l.maxRequests
}

// sweep evicts expired windows once per window duration until done closes.
func (l *trackLimiter) sweep(done <-chan struct{}) {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			l.mu.Lock()
			now := time.Now()
			for ip, entry := range l.windows {
				if now.After(entry.expiresAt) {
					delete(l.windows, ip)
				}
			}
			l.mu.Unlock()
		}
	}
}

func clientIP(c *gin.Context) string {
	ip, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil || ip == "" {
		return c.Request.RemoteAddr
	}
	return ip
}
