package repository

import (
	"strings"

	"go-inventory-ledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductFilter struct {
	Category   string
	IsActive   *bool
	SupplierID *uuid.UUID
	Search     string
	Page
}

type ProductRepository interface {
	Create(tx *gorm.DB, product *model.Product) error
	FindAll(filter ProductFilter) ([]model.Product, int64, error)
	FindByID(id uuid.UUID) (*model.Product, error)
	FindBySKU(sku string) (*model.Product, error)
	FindBySupplier(supplierID uuid.UUID, activeOnly bool) ([]model.Product, error)
	Categories() ([]string, error)
	Update(product *model.Product) error
	SetActive(id uuid.UUID, active bool, updatedBy string) error
	Delete(tx *gorm.DB, id uuid.UUID) error
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

// Create accepts the enclosing unit of work so the product and its initial
// inventory rows commit together.
func (r *productRepo) Create(tx *gorm.DB, product *model.Product) error {
	return translateError(tx.Omit("Supplier").Create(product).Error, "product")
}

func (r *productRepo) FindAll(filter ProductFilter) ([]model.Product, int64, error) {
	q := r.db.Model(&model.Product{})
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.IsActive != nil {
		q = q.Where("is_active = ?", *filter.IsActive)
	}
	if filter.SupplierID != nil {
		q = q.Where("supplier_id = ?", *filter.SupplierID)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "product")
	}

	var products []model.Product
	err := filter.Page.apply(q).Order("sku ASC").Find(&products).Error
	return products, total, translateError(err, "product")
}

func (r *productRepo) FindByID(id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := r.db.Preload("Supplier").First(&product, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "product")
	}
	return &product, nil
}

func (r *productRepo) FindBySKU(sku string) (*model.Product, error) {
	var product model.Product
	if err := r.db.Preload("Supplier").First(&product, "sku = ?", sku).Error; err != nil {
		return nil, translateError(err, "product")
	}
	return &product, nil
}

func (r *productRepo) FindBySupplier(supplierID uuid.UUID, activeOnly bool) ([]model.Product, error) {
	q := r.db.Where("supplier_id = ?", supplierID)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var products []model.Product
	err := q.Order("sku ASC").Find(&products).Error
	return products, translateError(err, "product")
}

func (r *productRepo) Categories() ([]string, error) {
	var categories []string
	err := r.db.Model(&model.Product{}).
		Where("category IS NOT NULL AND category <> ''").
		Distinct().
		Order("category ASC").
		Pluck("category", &categories).Error
	return categories, translateError(err, "product")
}

func (r *productRepo) Update(product *model.Product) error {
	return translateError(r.db.Omit("Supplier", "SKU", "CreatedAt", "CreatedBy").Save(product).Error, "product")
}

func (r *productRepo) SetActive(id uuid.UUID, active bool, updatedBy string) error {
	res := r.db.Model(&model.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  active,
			"updated_by": updatedBy,
		})
	if res.Error != nil {
		return translateError(res.Error, "product")
	}
	if res.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound, "product")
	}
	return nil
}

func (r *productRepo) Delete(tx *gorm.DB, id uuid.UUID) error {
	return translateError(tx.Delete(&model.Product{}, "id = ?", id).Error, "product")
}
