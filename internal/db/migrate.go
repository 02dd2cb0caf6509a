package db

import (
	"expense_tracker/internal/domain" // Importing domain models

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"gorm.io/gorm" // GORM ORM library
)

// Migrate performs automatic migration for the database schema and seeds
// the role table plus an optional bootstrap admin account.
func Migrate(db *gorm.DB, adminEmail, adminPassword string) error {
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	err := db.AutoMigrate(
		&domain.Role{},
		&domain.User{},
		&domain.RefreshToken{},
		&domain.Category{},
		&domain.Expense{},
	)
	if err != nil {
		return err
	}

	if err := seedRoles(db); err != nil {
		return err
	}
	if adminEmail != "" && adminPassword != "" {
		if err := seedAdmin(db, adminEmail, adminPassword); err != nil {
			return err
		}
	}

	logrus.Info("Migration completed.") // Log successful migration
	return nil
}

// seedRoles makes sure the two known roles exist.
func seedRoles(db *gorm.DB) error {
	for _, name := range []string{domain.RoleAdmin, domain.RoleUser} {
		role := domain.Role{Name: name}
		if err := db.Where("name = ?", name).FirstOrCreate(&role).Error; err != nil {
			return err
		}
	}
	return nil
}

// seedAdmin creates the bootstrap admin user if it does not exist yet.
func seedAdmin(db *gorm.DB, email, password string) error {
	var count int64
	if err := db.Model(&domain.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil // already seeded
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	var roles []domain.Role
	if err := db.Where("name IN ?", []string{domain.RoleAdmin, domain.RoleUser}).Find(&roles).Error; err != nil {
		return err
	}

	admin := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Roles:        roles,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	logrus.WithField("email", email).Info("Seeded admin user")
	return nil
}
