package db

import (
	"fmt"
	"log"

	"github.com/tapreview/tapreview-backend/internal/app/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB creates an in-memory SQLite database for testing
func SetupTestDB() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}

	// Run migrations
	err = db.AutoMigrate(
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
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate test database: %w", err)
	}

	return db, nil
}

// CleanupTestDB cleans up the test database
func CleanupTestDB(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Failed to get DB instance: %v", err)
		return
	}
	sqlDB.Close()
}

// TruncateAllTables removes all data from tables
func TruncateAllTables(db *gorm.DB) error {
	tables := []string{
		"audit_logs", "admin_notifications", "reviews",
		"tag_pair_activities", "tag_pairs", "tag_history", "tags",
		"coupon_usages", "coupons", "payments", "subscriptions",
		"businesses", "admin_sessions", "admins",
	}
	for _, table := range tables {
		if err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
			return err
		}
	}
	return nil
}
