package middleware

import (
	"net/http"
	"sync"
	"time"

	"knitmes/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// slidingWindow counts requests per client IP within a fixed-length window.
// Entries for IPs that stop calling are purged in the background.
type slidingWindow struct {
	limit  int
	window time.Duration

	mu      sync.Mutex
	entries map[string]*windowEntry
}

type windowEntry struct {
	count     int
	windowEnd time.Time
}

func newSlidingWindow(limit int, window time.Duration) *slidingWindow {
	sw := &slidingWindow{
		limit:   limit,
		window:  window,
		entries: make(map[string]*windowEntry),
	}
	go sw.purgeLoop()
	return sw
}

// allow records one request for ip and reports whether it is within the
// limit, along with the moment the current window resets.
func (sw *slidingWindow) allow(ip string) (bool, time.Time) {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := time.Now()
	entry, ok := sw.entries[ip]
	if !ok || now.After(entry.windowEnd) {
		entry = &windowEntry{windowEnd: now.Add(sw.window)}
		sw.entries[ip] = entry
	}
	entry.count++
	return entry.count <= sw.limit, entry.windowEnd
}

const purgeInterval = 5 * time.Minute

func (sw *slidingWindow) purgeLoop() {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		sw.mu.Lock()
		purged := 0
		for ip, entry := range sw.entries {
			if now.After(entry.windowEnd) {
				delete(sw.entries, ip)
				purged++
			}
		}
		sw.mu.Unlock()
		if purged > 0 {
			log.Debug().Int("entries_purged", purged).Msg("rate limiter map purged")
		}
	}
}

// LoginRateLimiter limits login attempts to 20 per minute per IP.
func LoginRateLimiter() gin.HandlerFunc {
	sw := newSlidingWindow(20, time.Minute)
	return func(c *gin.Context) {
		if ok, _ := sw.allow(c.ClientIP()); !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("too many login attempts, retry in a minute"))
			return
		}
		c.Next()
	}
}

// RateLimiter returns a general-purpose per-IP limiter. Scanning terminals
// burst during shift changes, so the limit should stay well above one scan
// per second per terminal.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	sw := newSlidingWindow(limit, window)
	return func(c *gin.Context) {
		ok, windowEnd := sw.allow(c.ClientIP())
		if !ok {
			c.Header("Retry-After", windowEnd.Format(time.RFC1123))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("too many requests, retry shortly"))
			return
		}
		c.Next()
	}
}
