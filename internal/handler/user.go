package handler

import (
	"fmt"
	"net/http"

	"github.com/sovieeet/gamevault/internal/auth"
	"github.com/sovieeet/gamevault/internal/middleware"
	"github.com/sovieeet/gamevault/internal/models"
	"github.com/sovieeet/gamevault/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// requireAdmin resolves the gate identity and enforces the admin role,
// answering the request itself on failure.
func requireAdmin(c *gin.Context, db *gorm.DB) (*models.User, bool) {
	username, ok := middleware.Identity(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not authenticated")
		return nil, false
	}

	user, err := auth.RequireRole(db, username, models.RoleAdmin)
	if err != nil {
		switch {
		case err == auth.ErrForbidden:
			util.Error(c, http.StatusForbidden, util.CodeForbidden, "you don't have permission to access this resource")
		case err == gorm.ErrRecordNotFound:
			// identity no longer backed by a user row
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not authenticated")
		default:
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query user failed")
		}
		return nil, false
	}
	return user, true
}

// GetMe returns the current identity with a fresh role lookup.
func GetMe(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, ok := middleware.Identity(c)
		if !ok {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not authenticated")
			return
		}

		var user models.User
		if err := db.Where("username = ?", username).First(&user).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not authenticated")
			} else {
				util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query user failed")
			}
			return
		}

		util.Success(c, util.Response{
			"user": gin.H{
				"id":       user.ID,
				"username": user.Username,
				"role":     user.Role,
			},
		})
	}
}

// ListUsers returns every username. Admin only.
func ListUsers(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireAdmin(c, db); !ok {
			return
		}

		var usernames []string
		if err := db.Model(&models.User{}).Order("id").Pluck("username", &usernames).Error; err != nil {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "list users failed")
			return
		}

		util.Success(c, util.Response{
			"users": usernames,
		})
	}
}

// DeleteUser removes a user by username. Admin only.
func DeleteUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireAdmin(c, db); !ok {
			return
		}

		username := c.Param("username")
		res := db.Where("username = ?", username).Delete(&models.User{})
		if res.Error != nil {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "delete user failed")
			return
		}
		if res.RowsAffected == 0 {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "user not found")
			return
		}

		util.Success(c, util.Response{
			"message": fmt.Sprintf("user %q deleted successfully", username),
		})
	}
}

// DeleteAllUsers removes every non-admin account. Admin only.
func DeleteAllUsers(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireAdmin(c, db); !ok {
			return
		}

		if err := db.Where("role <> ?", models.RoleAdmin).Delete(&models.User{}).Error; err != nil {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "delete users failed")
			return
		}

		util.Success(c, util.Response{
			"message": "all non-admin users have been deleted",
		})
	}
}
