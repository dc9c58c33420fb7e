// Package testdb provides an in-memory database for service tests.
package testdb

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/snipmarket/snipmarket/app/models"
)

// New opens a fresh in-memory SQLite database with the full schema migrated.
// Each call returns an isolated database; the connection pool is capped at
// one so every query sees the same in-memory store.
func New(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test database: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.User{},
		&models.Thread{},
		&models.Wallet{},
		&models.WalletTransaction{},
		&models.PaymentMethod{},
		&models.CartItem{},
		&models.SnippetPurchase{},
	); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	return db
}
