package repository

import (
	"errors"
	"fmt"
	"time"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventoryFilter struct {
	ProductID  *uuid.UUID
	LocationID *uuid.UUID
	Page
}

// InventoryRepository is the storage side of the ledger. Methods that take a
// tx participate in the caller's unit of work.
type InventoryRepository interface {
	FindForUpdate(tx *gorm.DB, productID, locationID uuid.UUID) (*model.Inventory, error)
	Create(tx *gorm.DB, inv *model.Inventory) error
	Save(tx *gorm.DB, inv *model.Inventory) error
	CreateEmptyRows(tx *gorm.DB, productID uuid.UUID, locationIDs []uuid.UUID) error
	CountStocked(tx *gorm.DB, column string, id uuid.UUID) (int64, error)
	DeleteEmpty(tx *gorm.DB, column string, id uuid.UUID) error

	Find(productID, locationID uuid.UUID) (*model.Inventory, error)
	FindAll(filter InventoryFilter) ([]model.Inventory, int64, error)
	FindByLocation(locationID uuid.UUID) ([]model.Inventory, error)
	FindByProduct(productID uuid.UUID) ([]model.Inventory, error)
	FindLowStock() ([]model.Inventory, error)
	FindActive() ([]model.Inventory, error)
}

type inventoryRepo struct {
	db *gorm.DB
}

func NewInventoryRepo(db *gorm.DB) InventoryRepository {
	return &inventoryRepo{db}
}

// FindForUpdate reads the row with a row-level lock where the dialect
// supports it (sqlite ignores the locking clause).
func (r *inventoryRepo) FindForUpdate(tx *gorm.DB, productID, locationID uuid.UUID) (*model.Inventory, error) {
	var inv model.Inventory
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ? AND location_id = ?", productID, locationID).
		First(&inv).Error
	if err != nil {
		return nil, translateError(err, "inventory")
	}
	return &inv, nil
}

// Create inserts a new ledger row. A duplicate means another writer
// provisioned the pair first.
func (r *inventoryRepo) Create(tx *gorm.DB, inv *model.Inventory) error {
	inv.LastUpdated = time.Now().UTC()
	err := tx.Omit("Product", "Location").Create(inv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
			return apperror.ConcurrentModification(
				fmt.Sprintf("inventory row for product %s at location %s was created concurrently", inv.ProductID, inv.LocationID))
		}
		return translateError(err, "inventory")
	}
	inv.AvailableQuantity = inv.Available()
	return nil
}

// Save writes quantities with a compare-and-swap on Version.
func (r *inventoryRepo) Save(tx *gorm.DB, inv *model.Inventory) error {
	now := time.Now().UTC()
	res := tx.Model(&model.Inventory{}).
		Where("id = ? AND version = ?", inv.ID, inv.Version).
		Updates(map[string]interface{}{
			"quantity_on_hand":  inv.QuantityOnHand,
			"reserved_quantity": inv.ReservedQuantity,
			"version":           inv.Version + 1,
			"last_updated":      now,
		})
	if res.Error != nil {
		return translateError(res.Error, "inventory")
	}
	if res.RowsAffected == 0 {
		return apperror.ConcurrentModification(fmt.Sprintf("inventory %s changed since version %d", inv.ID, inv.Version))
	}

	inv.Version++
	inv.LastUpdated = now
	inv.AvailableQuantity = inv.Available()
	return nil
}

func (r *inventoryRepo) CreateEmptyRows(tx *gorm.DB, productID uuid.UUID, locationIDs []uuid.UUID) error {
	if len(locationIDs) == 0 {
		return nil
	}
	rows := make([]model.Inventory, 0, len(locationIDs))
	now := time.Now().UTC()
	for _, locID := range locationIDs {
		rows = append(rows, model.Inventory{
			ProductID:   productID,
			LocationID:  locID,
			LastUpdated: now,
		})
	}
	return translateError(tx.Omit("Product", "Location").Create(&rows).Error, "inventory")
}

// CountStocked counts rows for a product_id or location_id that still hold
// on-hand or reserved units.
func (r *inventoryRepo) CountStocked(tx *gorm.DB, column string, id uuid.UUID) (int64, error) {
	var n int64
	err := tx.Model(&model.Inventory{}).
		Where(clause.Eq{Column: clause.Column{Name: column}, Value: id}).
		Where("quantity_on_hand <> 0 OR reserved_quantity <> 0").
		Count(&n).Error
	return n, translateError(err, "inventory")
}

func (r *inventoryRepo) DeleteEmpty(tx *gorm.DB, column string, id uuid.UUID) error {
	err := tx.
		Where(clause.Eq{Column: clause.Column{Name: column}, Value: id}).
		Where("quantity_on_hand = 0 AND reserved_quantity = 0").
		Delete(&model.Inventory{}).Error
	return translateError(err, "inventory")
}

func (r *inventoryRepo) Find(productID, locationID uuid.UUID) (*model.Inventory, error) {
	var inv model.Inventory
	err := r.db.Preload("Product").Preload("Location").
		Where("product_id = ? AND location_id = ?", productID, locationID).
		First(&inv).Error
	if err != nil {
		return nil, translateError(err, "inventory")
	}
	return &inv, nil
}

func (r *inventoryRepo) FindAll(filter InventoryFilter) ([]model.Inventory, int64, error) {
	q := r.db.Model(&model.Inventory{})
	if filter.ProductID != nil {
		q = q.Where("product_id = ?", *filter.ProductID)
	}
	if filter.LocationID != nil {
		q = q.Where("location_id = ?", *filter.LocationID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "inventory")
	}

	var rows []model.Inventory
	err := filter.Page.apply(q).
		Preload("Product").Preload("Location").
		Order("last_updated DESC").
		Find(&rows).Error
	return rows, total, translateError(err, "inventory")
}

func (r *inventoryRepo) FindByLocation(locationID uuid.UUID) ([]model.Inventory, error) {
	var rows []model.Inventory
	err := r.db.Preload("Product").
		Where("location_id = ?", locationID).
		Find(&rows).Error
	return rows, translateError(err, "inventory")
}

func (r *inventoryRepo) FindByProduct(productID uuid.UUID) ([]model.Inventory, error) {
	var rows []model.Inventory
	err := r.db.Preload("Location").
		Where("product_id = ?", productID).
		Find(&rows).Error
	return rows, translateError(err, "inventory")
}

// FindLowStock returns rows at or below the product reorder point, limited
// to active products at active locations.
func (r *inventoryRepo) FindLowStock() ([]model.Inventory, error) {
	var rows []model.Inventory
	err := r.activeJoin().
		Where("inventory.quantity_on_hand <= products.reorder_point").
		Preload("Product").Preload("Location").
		Order("products.sku ASC, locations.name ASC").
		Find(&rows).Error
	return rows, translateError(err, "inventory")
}

// FindActive returns every row of an active product at an active location.
func (r *inventoryRepo) FindActive() ([]model.Inventory, error) {
	var rows []model.Inventory
	err := r.activeJoin().
		Preload("Product").Preload("Location").
		Order("products.sku ASC, locations.name ASC").
		Find(&rows).Error
	return rows, translateError(err, "inventory")
}

func (r *inventoryRepo) activeJoin() *gorm.DB {
	return r.db.Model(&model.Inventory{}).
		Joins("JOIN products ON products.id = inventory.product_id").
		Joins("JOIN locations ON locations.id = inventory.location_id").
		Where("products.is_active = ? AND locations.is_active = ?", true, true)
}
