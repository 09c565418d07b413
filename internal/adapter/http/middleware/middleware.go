package middleware

import (
	"net/http"
	"strings"
	"time"

	"rwa-signing-gateway/internal/core/ports"
	"rwa-signing-gateway/pkg/apperror"
	"rwa-signing-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	HeaderRequestID = "X-Request-ID"

	// Context keys
	CtxRequestID   = response.RequestIDKey
	CtxIdentity    = "identity"
	CtxBearerToken = "bearer_token"
	CtxResourceID  = "resource_id"
)

// RequestID tags every request with an id, reusing the caller's when it sent one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(CtxRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// BearerToken returns the token from an "Authorization: Bearer ..." header, or "".
func BearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) < 8 || !strings.EqualFold(h[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// BearerAuth validates the identity token for admin and batch routes.
// The signing RPC authenticates inside the gateway instead.
func BearerAuth(tokenSvc ports.TokenService, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			response.Error(c, apperror.ErrUnauthorized("Missing bearer token"))
			c.Abort()
			return
		}

		identity, err := tokenSvc.Validate(token)
		if err != nil {
			log.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("bearer token rejected")
			response.Error(c, apperror.ErrUnauthorized("Invalid or expired token"))
			c.Abort()
			return
		}

		c.Set(CtxIdentity, *identity)
		c.Set(CtxBearerToken, token)
		c.Next()
	}
}

// RequireRole lets through only identities holding one of roles.
// Must run after BearerAuth.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		identity, ok := IdentityFrom(c)
		if !ok {
			response.Error(c, apperror.ErrUnauthorized("Missing bearer token"))
			c.Abort()
			return
		}
		if _, ok := allowed[identity.Role]; !ok {
			response.Error(c, apperror.ErrForbidden("Role "+identity.Role+" may not perform this action"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// IdentityFrom returns the identity BearerAuth stored on the context.
func IdentityFrom(c *gin.Context) (ports.Identity, bool) {
	v, ok := c.Get(CtxIdentity)
	if !ok {
		return ports.Identity{}, false
	}
	identity, ok := v.(ports.Identity)
	return identity, ok
}

// RequestLogger creates a middleware that logs every HTTP request.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		event := log.Info()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		} else if status >= http.StatusBadRequest {
			event = log.Warn()
		}

		event.
			Str("request_id", c.GetString(CtxRequestID)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Msg("http request")
	}
}

// Recovery turns a panic outside the gateway into an INTERNAL_ERROR response.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("path", c.Request.URL.Path).Msg("panic recovered")
				response.Error(c, apperror.InternalError(nil))
				c.Abort()
			}
		}()
		c.Next()
	}
}
