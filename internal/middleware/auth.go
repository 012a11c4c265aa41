package middleware

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"smart-vault-backend/internal/models"
	"smart-vault-backend/internal/services"
)

const (
	ContextSigner   = "signer"
	ContextCallData = "call_data"

	maxBodyBytes = 64 << 10

	limiterIdleTTL = 10 * time.Minute
)

// AuthMiddleware verifies the caller's EdDSA token. The token must name this
// method and path, for anything but GET it must also sign the exact request
// body, and its id is spent on first use. The call data kept on the context
// is the token digest followed by the body.
func AuthMiddleware(jwtService *services.JWTService, nonces services.NonceStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		var tokenString string

		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization format"})
				c.Abort()
				return
			}
			tokenString = parts[1]
		} else {
			tokenString = c.Query("token")
			if tokenString == "" {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
				c.Abort()
				return
			}
		}

		claims, signer, err := jwtService.ValidateToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		if err := claims.VerifyRoute(c.Request.Method, c.Request.URL.Path); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token does not match request route"})
			c.Abort()
			return
		}

		var body []byte
		if c.Request.Method != http.MethodGet {
			body, err = io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes+1))
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
				c.Abort()
				return
			}
			if len(body) > maxBodyBytes {
				c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large"})
				c.Abort()
				return
			}
			c.Request.Body = io.NopCloser(bytes.NewReader(body))

			if err := claims.VerifyBody(body); err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Token does not match request body"})
				c.Abort()
				return
			}
		}

		fresh, err := nonces.Claim(c.Request.Context(), claims.ID, jwtService.MaxAge())
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Token check unavailable"})
			c.Abort()
			return
		}
		if !fresh {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token already used"})
			c.Abort()
			return
		}

		c.Set(ContextSigner, signer)
		c.Set(ContextCallData, services.CallEntropy(tokenString, body))

		c.Next()
	}
}

func Signer(c *gin.Context) models.Identity {
	if v, ok := c.Get(ContextSigner); ok {
		if id, ok := v.(models.Identity); ok {
			return id
		}
	}
	return models.Identity{}
}

func CallData(c *gin.Context) []byte {
	if v, ok := c.Get(ContextCallData); ok {
		if data, ok := v.([]byte); ok {
			return data
		}
	}
	return nil
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// signerLimiters hands out one token bucket per signer and forgets signers
// idle for longer than idle.
type signerLimiters struct {
	mu        sync.Mutex
	perSecond float64
	burst     int
	idle      time.Duration
	now       func() time.Time
	lastSweep time.Time
	entries   map[models.Identity]*limiterEntry
}

func newSignerLimiters(perSecond float64, burst int, idle time.Duration, now func() time.Time) *signerLimiters {
	return &signerLimiters{
		perSecond: perSecond,
		burst:     burst,
		idle:      idle,
		now:       now,
		lastSweep: now(),
		entries:   make(map[models.Identity]*limiterEntry),
	}
}

func (l *signerLimiters) allow(id models.Identity) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.idle {
		for signer, entry := range l.entries {
			if now.Sub(entry.lastSeen) >= l.idle {
				delete(l.entries, signer)
			}
		}
		l.lastSweep = now
	}

	entry, ok := l.entries[id]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(l.perSecond), l.burst)}
		l.entries[id] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// RateLimitMiddleware applies a token bucket per signer. Requests that have
// not been authenticated pass through untouched.
func RateLimitMiddleware(perSecond float64, burst int) gin.HandlerFunc {
	limiters := newSignerLimiters(perSecond, burst, limiterIdleTTL, time.Now)

	return func(c *gin.Context) {
		signer := Signer(c)
		if signer.IsZero() {
			c.Next()
			return
		}

		if !limiters.allow(signer) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": 1 / perSecond,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
