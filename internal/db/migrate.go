package db

import (
	"os"

	"github.com/tapreview/tapreview-backend/internal/app/model"
	"github.com/tapreview/tapreview-backend/pkg/logger"
	"github.com/tapreview/tapreview-backend/pkg/util"
)

// Migrate runs database migrations
func Migrate() error {
	logger.Info("Running database migrations...")

	models := []interface{}{
		&model.Admin{},
		&model.AdminSession{},
		&model.Business{},
		&model.Subscription{},
		&model.Payment{},
		&model.Coupon{},
		&model.CouponUsage{},
		&model.Tag{},
		&model.TagHistory{},
		&model.TagPair{},
		&model.TagPairActivity{},
		&model.Review{},
		&model.AdminNotification{},
		&model.AuditLog{},
	}

	if err := DB.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	if err := seedInitialData(); err != nil {
		logger.Error("Failed to seed initial data during migration", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

// Seed adds initial data to the database (optional)
func Seed() error {
	return seedInitialData()
}

func seedInitialData() error {
	logger.Info("Seeding initial data...")

	if err := seedDefaultAdmin(); err != nil {
		logger.Error("Failed to seed default admin", err)
		return err
	}

	logger.Info("Initial data seeded successfully")
	return nil
}

// seedDefaultAdmin creates the bootstrap super admin when the admins table is
// empty. Credentials come from the environment so a fresh deployment is never
// left without console access.
func seedDefaultAdmin() error {
	var count int64
	if err := DB.Model(&model.Admin{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		logger.Info("Admins already seeded, skipping...", map[string]interface{}{
			"existing_count": count,
		})
		return nil
	}

	email := os.Getenv("BOOTSTRAP_ADMIN_EMAIL")
	if email == "" {
		email = "admin@tapreview.io"
	}
	password := os.Getenv("BOOTSTRAP_ADMIN_PASSWORD")
	if password == "" {
		password = "changeme"
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return err
	}

	admin := model.Admin{
		Email:        email,
		PasswordHash: hash,
		Name:         "Bootstrap Admin",
		Role:         model.AdminRoleSuperAdmin,
		Active:       true,
	}
	if err := DB.Create(&admin).Error; err != nil {
		return err
	}

	logger.Info("Default super admin created", map[string]interface{}{
		"email": email,
	})
	return nil
}
