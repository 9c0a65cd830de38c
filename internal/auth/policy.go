package auth

import (
	"errors"

	"github.com/sovieeet/gamevault/internal/models"

	"gorm.io/gorm"
)

// ErrForbidden means the caller is authenticated but lacks the required role.
var ErrForbidden = errors.New("forbidden")

// RequireRole loads the identity's user record and checks its role. The
// lookup is fresh on every call so role changes apply immediately. Returns
// the record on success so handlers avoid a second query.
func RequireRole(db *gorm.DB, username, role string) (*models.User, error) {
	var user models.User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	if user.Role != role {
		return nil, ErrForbidden
	}
	return &user, nil
}
