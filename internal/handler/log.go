package handler

import (
	"net/http"

	"github.com/sovieeet/gamevault/internal/models"
	"github.com/sovieeet/gamevault/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ListAuditLogs returns the most recent audit entries. Admin only.
func ListAuditLogs(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireAdmin(c, db); !ok {
			return
		}

		var entries []models.AuditLog
		if err := db.Order("id DESC").Limit(100).Find(&entries).Error; err != nil {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "list audit logs failed")
			return
		}

		out := make([]gin.H, 0, len(entries))
		for _, e := range entries {
			out = append(out, gin.H{
				"id":         e.ID,
				"username":   e.Username,
				"method":     e.Method,
				"path":       e.Path,
				"ip":         e.IP,
				"user_agent": e.UserAgent,
				"created_at": e.CreatedAt,
			})
		}

		util.Success(c, util.Response{
			"logs": out,
		})
	}
}
