// Package middleware holds the gin middleware shared by every API route.
package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/wardbook/pkg/auth"
	"github.com/dmehra2102/prod-golang-projects/wardbook/pkg/metrics"
)

const (
	RequestIDHeader = "X-Request-ID"

	callerKey    = "caller"
	requestIDKey = "request_id"
)

// TokenValidator checks bearer tokens. *auth.JWTManager implements it.
type TokenValidator interface {
	ValidateAccessToken(token string) (*domain.Claims, error)
}

// RequestID tags every request with an id, reusing the client's when sent.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// Authenticate resolves the caller from an optional bearer token. Requests
// without a token continue anonymously; a token that fails validation is
// rejected.
func Authenticate(tokens TokenValidator, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := &domain.Caller{IP: c.ClientIP(), RequestID: c.GetString(requestIDKey)}
		c.Set(callerKey, caller)

		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			return
		}

		claims, err := tokens.ValidateAccessToken(strings.TrimSpace(parts[1]))
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, auth.ErrTokenExpired) {
				msg = "token has expired"
			}
			log.Debug("rejected bearer token", zap.Error(err), zap.String("ip", caller.IP))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		caller.UserID = claims.UserID
		caller.Username = claims.Username
		caller.Role = claims.Role
		c.Next()
	}
}

// RequireAuth rejects anonymous callers. It must run after Authenticate.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !Caller(c).Authenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// Caller returns the request's caller. It is never nil.
func Caller(c *gin.Context) *domain.Caller {
	if v, ok := c.Get(callerKey); ok {
		if caller, ok := v.(*domain.Caller); ok {
			return caller
		}
	}
	return &domain.Caller{IP: c.ClientIP(), RequestID: c.GetString(requestIDKey)}
}

// Metrics records request counts and latency by route template.
func Metrics(m *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.RequestStarted()
		defer m.RequestFinished()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start).Seconds())
	}
}

func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}
