package delivery

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"storefront-backend/internal/domain"
)

const (
	identityKey     = "identity"
	requestIDHeader = "X-Request-ID"
)

// TokenParser turns a bearer token into the caller's identity.
type TokenParser interface {
	ParseToken(token string) (domain.Identity, error)
}

func AuthMiddleware(tokens TokenParser, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Warn("Middleware: Authorization header is missing")
			ErrorResponse(c, http.StatusUnauthorized, domain.CodeUnauthenticated, "authorization header required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
			log.Warn("Middleware: Invalid Authorization header format")
			ErrorResponse(c, http.StatusUnauthorized, domain.CodeUnauthenticated, "invalid authorization header format")
			return
		}

		id, err := tokens.ParseToken(parts[1])
		if err != nil {
			log.Warnf("Middleware: Token rejected: %v", err)
			ErrorResponse(c, http.StatusUnauthorized, domain.CodeUnauthenticated, "invalid or expired token")
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// RequireAdmin must run after AuthMiddleware.
func RequireAdmin(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := identityFrom(c)
		if !id.IsAdmin() {
			log.Warnf("Middleware: %s denied admin route %s", id.Email, c.FullPath())
			ErrorResponse(c, http.StatusForbidden, domain.CodeForbidden, "admin access required")
			return
		}
		c.Next()
	}
}

func identityFrom(c *gin.Context) domain.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(domain.Identity); ok {
			return id
		}
	}
	return domain.Identity{}
}

// RequestLogger tags each request with an X-Request-ID and logs its outcome.
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		reqID := c.GetHeader(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Writer.Header().Set(requestIDHeader, reqID)

		c.Next()

		statusCode := c.Writer.Status()
		entry := logger.WithFields(logrus.Fields{
			"request_id":  reqID,
			"status_code": statusCode,
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"remote_ip":   c.ClientIP(),
			"latency_ms":  time.Since(startTime).Milliseconds(),
		})

		switch {
		case len(c.Errors) > 0:
			entry.Error(c.Errors.ByType(gin.ErrorTypePrivate).String())
		case statusCode >= http.StatusInternalServerError:
			entry.Error("Request completed with server error")
		case statusCode >= http.StatusBadRequest:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}
