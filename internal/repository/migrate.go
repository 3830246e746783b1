package repository

import (
	"go-inventory-ledger/internal/model"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates the five ledger tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Supplier{},
		&model.Location{},
		&model.Product{},
		&model.Inventory{},
		&model.Transaction{},
	)
}

// Page is an offset window over a list query.
type Page struct {
	Skip  int
	Limit int
}

func (p Page) apply(db *gorm.DB) *gorm.DB {
	if p.Skip > 0 {
		db = db.Offset(p.Skip)
	}
	if p.Limit > 0 {
		db = db.Limit(p.Limit)
	}
	return db
}
