package repository

import (
	"time"

	"go-inventory-ledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LocationFilter struct {
	IsActive      *bool
	WarehouseType string
	Page
}

// LocationTotal is a location ranked by units on hand.
type LocationTotal struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	TotalQuantity int64     `json:"total_quantity"`
}

type LocationRepository interface {
	Create(location *model.Location) error
	FindAll(filter LocationFilter) ([]model.Location, int64, error)
	FindByID(id uuid.UUID) (*model.Location, error)
	FindByName(name string) (*model.Location, error)
	FindByCode(code string) (*model.Location, error)
	FindActive(tx *gorm.DB) ([]model.Location, error)
	FindEmpty() ([]model.Location, error)
	FindLowActivity(since time.Time, minTransactions int) ([]model.Location, error)
	WarehouseTypes() ([]string, error)
	TopByQuantity(limit int) ([]LocationTotal, error)
	Count(activeOnly bool) (int64, error)
	Update(location *model.Location) error
	SetActive(tx *gorm.DB, id uuid.UUID, active bool, updatedBy string) error
	Delete(tx *gorm.DB, id uuid.UUID) error
}

type locationRepo struct {
	db *gorm.DB
}

func NewLocationRepo(db *gorm.DB) LocationRepository {
	return &locationRepo{db}
}

func (r *locationRepo) Create(location *model.Location) error {
	return translateError(r.db.Create(location).Error, "location")
}

func (r *locationRepo) FindAll(filter LocationFilter) ([]model.Location, int64, error) {
	q := r.db.Model(&model.Location{})
	if filter.IsActive != nil {
		q = q.Where("is_active = ?", *filter.IsActive)
	}
	if filter.WarehouseType != "" {
		q = q.Where("warehouse_type = ?", filter.WarehouseType)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "location")
	}

	var locations []model.Location
	err := filter.Page.apply(q).Order("name ASC").Find(&locations).Error
	return locations, total, translateError(err, "location")
}

func (r *locationRepo) FindByID(id uuid.UUID) (*model.Location, error) {
	var location model.Location
	if err := r.db.First(&location, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "location")
	}
	return &location, nil
}

func (r *locationRepo) FindByName(name string) (*model.Location, error) {
	var location model.Location
	if err := r.db.First(&location, "name = ?", name).Error; err != nil {
		return nil, translateError(err, "location")
	}
	return &location, nil
}

func (r *locationRepo) FindByCode(code string) (*model.Location, error) {
	var location model.Location
	if err := r.db.First(&location, "code = ?", code).Error; err != nil {
		return nil, translateError(err, "location")
	}
	return &location, nil
}

func (r *locationRepo) FindActive(tx *gorm.DB) ([]model.Location, error) {
	var locations []model.Location
	err := tx.Where("is_active = ?", true).Order("name ASC").Find(&locations).Error
	return locations, translateError(err, "location")
}

// FindEmpty returns active locations without any positive on-hand row.
func (r *locationRepo) FindEmpty() ([]model.Location, error) {
	stocked := r.db.Model(&model.Inventory{}).
		Select("location_id").
		Where("quantity_on_hand > 0")

	var locations []model.Location
	err := r.db.
		Where("is_active = ?", true).
		Where("id NOT IN (?)", stocked).
		Order("name ASC").
		Find(&locations).Error
	return locations, translateError(err, "location")
}

// FindLowActivity returns active locations with fewer than minTransactions
// ledger rows created since the cutoff.
func (r *locationRepo) FindLowActivity(since time.Time, minTransactions int) ([]model.Location, error) {
	busy := r.db.Model(&model.Transaction{}).
		Select("location_id").
		Where("created_at >= ?", since).
		Group("location_id").
		Having("COUNT(*) >= ?", minTransactions)

	var locations []model.Location
	err := r.db.
		Where("is_active = ?", true).
		Where("id NOT IN (?)", busy).
		Order("name ASC").
		Find(&locations).Error
	return locations, translateError(err, "location")
}

func (r *locationRepo) WarehouseTypes() ([]string, error) {
	var types []string
	err := r.db.Model(&model.Location{}).
		Where("warehouse_type IS NOT NULL AND warehouse_type <> ''").
		Distinct().
		Order("warehouse_type ASC").
		Pluck("warehouse_type", &types).Error
	return types, translateError(err, "location")
}

func (r *locationRepo) TopByQuantity(limit int) ([]LocationTotal, error) {
	var totals []LocationTotal
	err := r.db.Model(&model.Location{}).
		Select("locations.id AS id, locations.name AS name, COALESCE(SUM(inventory.quantity_on_hand), 0) AS total_quantity").
		Joins("JOIN inventory ON inventory.location_id = locations.id").
		Where("locations.is_active = ?", true).
		Group("locations.id, locations.name").
		Order("total_quantity DESC").
		Limit(limit).
		Scan(&totals).Error
	return totals, translateError(err, "location")
}

func (r *locationRepo) Count(activeOnly bool) (int64, error) {
	var n int64
	q := r.db.Model(&model.Location{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Count(&n).Error
	return n, translateError(err, "location")
}

func (r *locationRepo) Update(location *model.Location) error {
	return translateError(r.db.Omit("CreatedAt", "CreatedBy").Save(location).Error, "location")
}

func (r *locationRepo) SetActive(tx *gorm.DB, id uuid.UUID, active bool, updatedBy string) error {
	res := tx.Model(&model.Location{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  active,
			"updated_by": updatedBy,
		})
	if res.Error != nil {
		return translateError(res.Error, "location")
	}
	if res.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound, "location")
	}
	return nil
}

func (r *locationRepo) Delete(tx *gorm.DB, id uuid.UUID) error {
	return translateError(tx.Delete(&model.Location{}, "id = ?", id).Error, "location")
}
