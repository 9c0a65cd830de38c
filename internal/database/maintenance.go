package database

import (
	"fmt"

	"github.com/sovieeet/gamevault/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// CreateAdmin inserts an admin account. Fails if the username is taken.
func CreateAdmin(db *gorm.DB, username, password string, bcryptCost int) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user := models.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
	}
	if err := db.Create(&user).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}

// ResetUsers drops and recreates the users table.
func ResetUsers(db *gorm.DB) error {
	if err := db.Migrator().DropTable(&models.User{}); err != nil {
		return fmt.Errorf("drop users table: %w", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		return fmt.Errorf("recreate users table: %w", err)
	}
	return nil
}

// DumpUsers returns all user records for maintenance inspection.
func DumpUsers(db *gorm.DB) ([]models.User, error) {
	var users []models.User
	if err := db.Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
