package middleware

import (
	"github.com/sovieeet/gamevault/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuditMiddleware records authenticated requests after the handler runs.
// Unauthenticated traffic (public paths, rejected requests) is not logged.
func AuditMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		username, ok := Identity(c)
		if !ok {
			return
		}

		entry := models.AuditLog{
			Username:  username,
			Method:    c.Request.Method,
			Path:      c.Request.URL.Path,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		}
		_ = db.Create(&entry).Error
	}
}
