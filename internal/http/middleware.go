package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ignatij/logreport/internal/log"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// RequestID tags each request with an id, reusing the caller's when present.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		entry := log.GetLogger().WithFields(logrus.Fields{
			"request_id": c.GetString(requestIDKey),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).String(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Error("request failed")
			return
		}
		entry.Debug("request handled")
	}
}

// limiterIdleTTL is how long a client IP keeps its limiter without requests.
const limiterIdleTTL = 15 * time.Minute

type clientLimiter struct {
	*rate.Limiter
	lastSeen time.Time
}

// ipLimiters holds one limiter per client IP. Entries idle for longer than
// ttl are swept at most once per ttl, on the request path.
type ipLimiters struct {
	mu        sync.Mutex
	limiters  map[string]*clientLimiter
	limit     rate.Limit
	burst     int
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
}

func newIPLimiters(limit rate.Limit, burst int, ttl time.Duration, now func() time.Time) *ipLimiters {
	return &ipLimiters{
		limiters:  make(map[string]*clientLimiter),
		limit:     limit,
		burst:     burst,
		ttl:       ttl,
		now:       now,
		lastSweep: now(),
	}
}

func (l *ipLimiters) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if now.Sub(l.lastSweep) >= l.ttl {
		for key, cl := range l.limiters {
			if now.Sub(cl.lastSeen) >= l.ttl {
				delete(l.limiters, key)
			}
		}
		l.lastSweep = now
	}
	cl, ok := l.limiters[ip]
	if !ok {
		cl = &clientLimiter{Limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[ip] = cl
	}
	cl.lastSeen = now
	return cl.AllowN(now, 1)
}

func (l *ipLimiters) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// RateLimit allows perMinute requests per client IP with the given burst.
func RateLimit(perMinute, burst int) gin.HandlerFunc {
	limiters := newIPLimiters(rate.Every(time.Minute/time.Duration(perMinute)), burst, limiterIdleTTL, time.Now)
	return func(c *gin.Context) {
		if !limiters.allow(c.ClientIP()) {
			c.String(http.StatusTooManyRequests, "Too many email requests, try again later.")
			c.Abort()
			return
		}
		c.Next()
	}
}
