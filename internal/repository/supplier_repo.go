package repository

import (
	"go-inventory-ledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SupplierFilter struct {
	IsActive  *bool
	MinRating *float64
	Page
}

type SupplierRepository interface {
	Create(supplier *model.Supplier) error
	FindAll(filter SupplierFilter) ([]model.Supplier, int64, error)
	FindByID(id uuid.UUID) (*model.Supplier, error)
	FindByName(name string) (*model.Supplier, error)
	FindNeedingReview(threshold float64) ([]model.Supplier, error)
	TopRated(limit int) ([]model.Supplier, error)
	Update(supplier *model.Supplier) error
	UpdateRating(id uuid.UUID, rating float64) error
	Count(activeOnly bool) (int64, error)
	AverageLeadTime() (float64, error)
	Delete(tx *gorm.DB, id uuid.UUID) error
}

type supplierRepo struct {
	db *gorm.DB
}

func NewSupplierRepo(db *gorm.DB) SupplierRepository {
	return &supplierRepo{db}
}

func (r *supplierRepo) Create(supplier *model.Supplier) error {
	return translateError(r.db.Create(supplier).Error, "supplier")
}

func (r *supplierRepo) FindAll(filter SupplierFilter) ([]model.Supplier, int64, error) {
	q := r.db.Model(&model.Supplier{})
	if filter.IsActive != nil {
		q = q.Where("is_active = ?", *filter.IsActive)
	}
	if filter.MinRating != nil {
		q = q.Where("performance_rating >= ?", *filter.MinRating)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "supplier")
	}

	var suppliers []model.Supplier
	err := filter.Page.apply(q).Order("name ASC").Find(&suppliers).Error
	return suppliers, total, translateError(err, "supplier")
}

func (r *supplierRepo) FindByID(id uuid.UUID) (*model.Supplier, error) {
	var supplier model.Supplier
	if err := r.db.First(&supplier, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "supplier")
	}
	return &supplier, nil
}

func (r *supplierRepo) FindByName(name string) (*model.Supplier, error) {
	var supplier model.Supplier
	if err := r.db.First(&supplier, "name = ?", name).Error; err != nil {
		return nil, translateError(err, "supplier")
	}
	return &supplier, nil
}

// FindNeedingReview returns active suppliers with no rating or a rating below threshold.
func (r *supplierRepo) FindNeedingReview(threshold float64) ([]model.Supplier, error) {
	var suppliers []model.Supplier
	err := r.db.
		Where("is_active = ?", true).
		Where("performance_rating IS NULL OR performance_rating < ?", threshold).
		Order("name ASC").
		Find(&suppliers).Error
	return suppliers, translateError(err, "supplier")
}

func (r *supplierRepo) TopRated(limit int) ([]model.Supplier, error) {
	var suppliers []model.Supplier
	err := r.db.
		Where("is_active = ? AND performance_rating IS NOT NULL", true).
		Order("performance_rating DESC").
		Limit(limit).
		Find(&suppliers).Error
	return suppliers, translateError(err, "supplier")
}

func (r *supplierRepo) Update(supplier *model.Supplier) error {
	return translateError(r.db.Omit("CreatedAt", "CreatedBy").Save(supplier).Error, "supplier")
}

func (r *supplierRepo) UpdateRating(id uuid.UUID, rating float64) error {
	res := r.db.Model(&model.Supplier{}).Where("id = ?", id).Update("performance_rating", rating)
	if res.Error != nil {
		return translateError(res.Error, "supplier")
	}
	if res.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound, "supplier")
	}
	return nil
}

func (r *supplierRepo) Count(activeOnly bool) (int64, error) {
	var n int64
	q := r.db.Model(&model.Supplier{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Count(&n).Error
	return n, translateError(err, "supplier")
}

func (r *supplierRepo) AverageLeadTime() (float64, error) {
	var avg *float64
	err := r.db.Model(&model.Supplier{}).
		Where("is_active = ?", true).
		Select("AVG(lead_time_days)").
		Scan(&avg).Error
	if err != nil || avg == nil {
		return 0, translateError(err, "supplier")
	}
	return *avg, nil
}

func (r *supplierRepo) Delete(tx *gorm.DB, id uuid.UUID) error {
	return translateError(tx.Delete(&model.Supplier{}, "id = ?", id).Error, "supplier")
}
