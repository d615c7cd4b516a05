package handler

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"hostel-portal/internal/session"
	"hostel-portal/pkg/logger"
)

const viewerKey = "viewer"

type Middleware struct {
	tokens *session.TokenParser

	mu       sync.Mutex
	limiters map[string]*limiterEntry
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewMiddleware(tokens *session.TokenParser) *Middleware {
	return &Middleware{
		tokens:   tokens,
		limiters: make(map[string]*limiterEntry),
	}
}

// AuthRequired resolves the bearer token into a session.User and attaches it
// to both the gin context and the request context.
func (m *Middleware) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		user, err := m.tokens.Parse(tokenString)
		if err != nil {
			logger.Debugf("rejected token: %v", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(viewerKey, user)
		c.Request = c.Request.WithContext(session.WithUser(c.Request.Context(), user))
		c.Next()
	}
}

// bearerToken reads the Authorization header, falling back to the token
// query parameter for EventSource and WebSocket clients that cannot set
// headers.
func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return c.Query("token")
}

// RateLimitPerUser must follow AuthRequired.
func (m *Middleware) RateLimitPerUser(r rate.Limit, b int) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := viewer(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User identity not found for rate limiting"})
			return
		}

		key := user.Key()
		m.mu.Lock()
		e, exists := m.limiters[key]
		if !exists {
			e = &limiterEntry{limiter: rate.NewLimiter(r, b)}
			m.limiters[key] = e
		}
		e.lastSeen = time.Now()
		limiter := e.limiter
		m.mu.Unlock()

		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}

		c.Next()
	}
}

// EvictIdle drops limiters untouched for longer than idle. A returning viewer
// starts again with a full bucket.
func (m *Middleware) EvictIdle(now time.Time, idle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for key, e := range m.limiters {
		if now.Sub(e.lastSeen) > idle {
			delete(m.limiters, key)
			evicted++
		}
	}
	return evicted
}

// Run evicts idle limiters every interval until ctx is done.
func (m *Middleware) Run(ctx context.Context, interval, idle time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	if idle <= 0 {
		idle = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := m.EvictIdle(now, idle); n > 0 {
				logger.Debugf("evicted %d idle rate limiters", n)
			}
		}
	}
}

func viewer(c *gin.Context) (session.User, bool) {
	v, ok := c.Get(viewerKey)
	if !ok {
		return session.FromContext(c.Request.Context())
	}
	u, ok := v.(session.User)
	return u, ok
}

// mustViewer aborts with 401 when no viewer is attached.
func mustViewer(c *gin.Context) (session.User, bool) {
	u, ok := viewer(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
	}
	return u, ok
}
