package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/committee-api/internal/models"
)

// RequestLog records admin mutations after they complete. Reads pass through
// silently; the role change audit trail itself is written transactionally in
// the repositories.
func RequestLog(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			return
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Int64("latency_ms", time.Since(start).Milliseconds()),
			zap.String("ip", c.ClientIP()),
		}
		if claims, ok := c.Get(ContextAdminKey); ok {
			if admin, ok := claims.(*models.AdminClaims); ok {
				fields = append(fields, zap.String("admin_id", admin.AdminID))
			}
		}

		if c.Writer.Status() >= 400 {
			logger.Warn("admin request failed", fields...)
			return
		}
		logger.Info("admin request", fields...)
	}
}
