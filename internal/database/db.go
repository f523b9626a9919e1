package database

import (
	"log"

	"printshop/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.User{},
		&model.Customer{},
		&model.Employee{},
		&model.RawMaterial{},
		&model.Supplier{},
		&model.MaterialOrder{},
		&model.Order{},
		&model.OrderItem{},
		&model.MaterialUsage{},
		&model.TrackingEntry{},
		&model.Invoice{},
		&model.Expense{},
		&model.LedgerEntry{},
		&model.Delivery{},
		&model.ProductionJob{},
		&model.Setting{},
		&model.Counter{},
		&model.AuditLog{},
	)
	if err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}
