package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry. SKU is unique across active and inactive
// products and cannot change after creation.
type Product struct {
	BaseModel
	SKU             string              `gorm:"type:varchar(64);uniqueIndex;not null" json:"sku"`
	Name            string              `gorm:"type:varchar(255);not null;index" json:"name"`
	Description     string              `gorm:"type:text" json:"description,omitempty"`
	Category        string              `gorm:"type:varchar(100);index" json:"category,omitempty"`
	UnitCost        decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"unit_cost"`
	UnitPrice       decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"unit_price"`
	Weight          decimal.NullDecimal `gorm:"type:decimal(10,3)" json:"weight"`
	Dimensions      string              `gorm:"type:varchar(100)" json:"dimensions,omitempty"`
	ReorderPoint    int                 `gorm:"not null" json:"reorder_point"`
	ReorderQuantity int                 `gorm:"not null" json:"reorder_quantity"`
	SupplierID      *uuid.UUID          `gorm:"type:uuid;index" json:"supplier_id,omitempty"`
	Supplier        *Supplier           `gorm:"constraint:OnDelete:RESTRICT" json:"supplier,omitempty"`
	IsActive        bool                `gorm:"not null;index" json:"is_active"`
}
