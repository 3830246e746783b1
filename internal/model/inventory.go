package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Inventory is the ledger row for one (product, location) pair.
// Version is bumped on every write and guards against lost updates.
type Inventory struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_inventory_product_location" json:"product_id"`
	LocationID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_inventory_product_location;index" json:"location_id"`
	Product           *Product  `gorm:"constraint:OnDelete:RESTRICT" json:"product,omitempty"`
	Location          *Location `gorm:"constraint:OnDelete:RESTRICT" json:"location,omitempty"`
	QuantityOnHand    int       `gorm:"not null" json:"quantity_on_hand"`
	ReservedQuantity  int       `gorm:"not null" json:"reserved_quantity"`
	AvailableQuantity int       `gorm:"-" json:"available_quantity"`
	Version           int64     `gorm:"not null" json:"version"`
	LastUpdated       time.Time `gorm:"not null" json:"last_updated"`
	CreatedAt         time.Time `json:"created_at"`
}

func (Inventory) TableName() string {
	return "inventory"
}

// Available is on hand minus reserved.
func (i *Inventory) Available() int {
	return i.QuantityOnHand - i.ReservedQuantity
}

func (i *Inventory) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.LastUpdated.IsZero() {
		i.LastUpdated = time.Now().UTC()
	}
	return nil
}

func (i *Inventory) AfterFind(tx *gorm.DB) error {
	i.AvailableQuantity = i.Available()
	return nil
}
