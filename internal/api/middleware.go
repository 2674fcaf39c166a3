package api

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/emojiblog/emojiblog/internal/identity"
)

// Authenticate attaches the caller's identity to the request context when a
// valid bearer session token is present. Requests without one stay anonymous.
func Authenticate(verifier *identity.Verifier, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" || verifier == nil {
			c.Next()
			return
		}

		subject, err := verifier.Verify(token)
		if err != nil {
			logger.Debug("Ignoring invalid session token", zap.Error(err))
			c.Next()
			return
		}

		c.Request = c.Request.WithContext(identity.NewContext(c.Request.Context(), subject))
		c.Next()
	}
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RequestLogger logs one line per request
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("Request handled",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
