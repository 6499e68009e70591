package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/tuition-match-api/pkg/models"
)

// AuditWriter persists audit entries.
type AuditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// Audit records a trail entry after every successful mutating request.
// Failures to write are logged and never change the response.
func Audit(repo AuditWriter, logger *zap.Logger, action, resource string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if repo == nil || c.Writer.Status() >= 400 {
			return
		}

		entry := &models.AuditLog{
			Action:    action,
			Resource:  resource,
			IPAddress: c.ClientIP(),
			UserAgent: c.GetHeader("User-Agent"),
		}
		if claims := CurrentUser(c); claims != nil {
			userID := claims.UserID
			entry.UserID = &userID
		}
		if id := resourceID(c); id != "" {
			entry.ResourceID = &id
		}
		entry.NewValues, _ = json.Marshal(map[string]interface{}{
			"path":    c.FullPath(),
			"method":  c.Request.Method,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).Milliseconds(),
		})

		if err := repo.CreateAuditLog(c.Request.Context(), entry); err != nil {
			logger.Warn("write audit log", zap.String("action", action), zap.Error(err))
		}
	}
}

func resourceID(c *gin.Context) string {
	for _, key := range []string{"assignmentId", "applicationId", "id"} {
		if v := c.Param(key); v != "" {
			return v
		}
	}
	return ""
}
