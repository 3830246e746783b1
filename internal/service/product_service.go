package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/apperror"
	"go-inventory-ledger/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CreateProductRequest struct {
	SKU             string              `json:"sku" validate:"required,max=64"`
	Name            string              `json:"name" validate:"required,max=255"`
	Description     string              `json:"description"`
	Category        string              `json:"category" validate:"max=100"`
	UnitCost        decimal.Decimal     `json:"unit_cost"`
	UnitPrice       decimal.NullDecimal `json:"unit_price"`
	Weight          decimal.NullDecimal `json:"weight"`
	Dimensions      string              `json:"dimensions" validate:"max=100"`
	ReorderPoint    *int                `json:"reorder_point" validate:"omitempty,min=0"`
	ReorderQuantity *int                `json:"reorder_quantity" validate:"omitempty,min=1"`
	SupplierID      *uuid.UUID          `json:"supplier_id"`
	IsActive        *bool               `json:"is_active"`
}

// UpdateProductRequest changes only the fields that are set. SKU is immutable.
type UpdateProductRequest struct {
	Name            *string             `json:"name" validate:"omitempty,min=1,max=255"`
	Description     *string             `json:"description"`
	Category        *string             `json:"category" validate:"omitempty,max=100"`
	UnitCost        decimal.NullDecimal `json:"unit_cost"`
	UnitPrice       decimal.NullDecimal `json:"unit_price"`
	Weight          decimal.NullDecimal `json:"weight"`
	Dimensions      *string             `json:"dimensions" validate:"omitempty,max=100"`
	ReorderPoint    *int                `json:"reorder_point" validate:"omitempty,min=0"`
	ReorderQuantity *int                `json:"reorder_quantity" validate:"omitempty,min=1"`
	SupplierID      *uuid.UUID          `json:"supplier_id"`
	IsActive        *bool               `json:"is_active"`
}

// ProductDefaults are applied when a create request omits reorder settings.
type ProductDefaults struct {
	ReorderPoint    int
	ReorderQuantity int
}

type ProductService interface {
	Create(ctx context.Context, req CreateProductRequest, userID string) (*model.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Product, error)
	GetBySKU(ctx context.Context, sku string) (*model.Product, error)
	List(ctx context.Context, filter repository.ProductFilter) ([]model.Product, int64, error)
	Categories(ctx context.Context) ([]string, error)
	LowStock(ctx context.Context) ([]model.Product, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateProductRequest, userID string) (*model.Product, error)
	Deactivate(ctx context.Context, id uuid.UUID, userID string) error
	DeletePermanently(ctx context.Context, id uuid.UUID, userID string) error
}

type productService struct {
	db              *gorm.DB
	productRepo     repository.ProductRepository
	supplierRepo    repository.SupplierRepository
	locationRepo    repository.LocationRepository
	inventoryRepo   repository.InventoryRepository
	transactionRepo repository.TransactionRepository
	cfg             LedgerConfig
	defaults        ProductDefaults
	paging          PageLimits
	notifier        *Notifier
	logger          *zap.Logger
}

func NewProductService(
	db *gorm.DB,
	pRepo repository.ProductRepository,
	sRepo repository.SupplierRepository,
	lRepo repository.LocationRepository,
	iRepo repository.InventoryRepository,
	tRepo repository.TransactionRepository,
	cfg LedgerConfig,
	defaults ProductDefaults,
	paging PageLimits,
	notifier *Notifier,
	logger *zap.Logger,
) ProductService {
	return &productService{
		db:              db,
		productRepo:     pRepo,
		supplierRepo:    sRepo,
		locationRepo:    lRepo,
		inventoryRepo:   iRepo,
		transactionRepo: tRepo,
		cfg:             cfg,
		defaults:        defaults,
		paging:          paging,
		notifier:        notifier,
		logger:          logger,
	}
}

func (s *productService) Create(ctx context.Context, req CreateProductRequest, userID string) (*model.Product, error) {
	req.SKU = strings.TrimSpace(req.SKU)
	req.Name = strings.TrimSpace(req.Name)
	if err := validator.Validate(req); err != nil {
		return nil, err
	}
	if err := checkMoney(req.UnitCost, "unit_cost"); err != nil {
		return nil, err
	}
	if req.UnitPrice.Valid {
		if err := checkMoney(req.UnitPrice.Decimal, "unit_price"); err != nil {
			return nil, err
		}
	}

	product := &model.Product{
		SKU:             req.SKU,
		Name:            req.Name,
		Description:     req.Description,
		Category:        strings.TrimSpace(req.Category),
		UnitCost:        req.UnitCost,
		UnitPrice:       req.UnitPrice,
		Weight:          req.Weight,
		Dimensions:      req.Dimensions,
		ReorderPoint:    s.defaults.ReorderPoint,
		ReorderQuantity: s.defaults.ReorderQuantity,
		SupplierID:      req.SupplierID,
		IsActive:        true,
	}
	product.CreatedBy = userID
	product.UpdatedBy = userID
	if req.ReorderPoint != nil {
		product.ReorderPoint = *req.ReorderPoint
	}
	if req.ReorderQuantity != nil {
		product.ReorderQuantity = *req.ReorderQuantity
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	var provisioned int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Product{}).Where("sku = ?", product.SKU).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperror.ConstraintViolation(fmt.Sprintf("product with SKU '%s' already exists", product.SKU), "")
		}
		if product.SupplierID != nil {
			if err := activeSupplier(tx, *product.SupplierID); err != nil {
				return err
			}
		}

		if err := s.productRepo.Create(tx, product); err != nil {
			return err
		}

		if !s.cfg.AutoCreateInventoryRecords {
			return nil
		}
		locations, err := s.locationRepo.FindActive(tx)
		if err != nil {
			return err
		}
		ids := make([]uuid.UUID, 0, len(locations))
		for _, l := range locations {
			ids = append(ids, l.ID)
		}
		provisioned = len(ids)
		return s.inventoryRepo.CreateEmptyRows(tx, product.ID, ids)
	})
	if err != nil {
		return nil, repository.TranslateError(err, "product")
	}

	s.logger.Info("product created",
		zap.String("product_id", product.ID.String()),
		zap.String("sku", product.SKU),
		zap.Int("inventory_rows", provisioned),
		zap.String("user_id", userID),
	)
	s.notifier.CatalogChanged(ctx, "product", product.ID, "created", userID)
	return product, nil
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return s.productRepo.FindByID(id)
}

func (s *productService) GetBySKU(ctx context.Context, sku string) (*model.Product, error) {
	return s.productRepo.FindBySKU(sku)
}

func (s *productService) List(ctx context.Context, filter repository.ProductFilter) ([]model.Product, int64, error) {
	page, err := s.paging.Normalize(filter.Page)
	if err != nil {
		return nil, 0, err
	}
	filter.Page = page
	return s.productRepo.FindAll(filter)
}

func (s *productService) Categories(ctx context.Context) ([]string, error) {
	return s.productRepo.Categories()
}

// LowStock returns each product that has at least one low-stock row.
func (s *productService) LowStock(ctx context.Context) ([]model.Product, error) {
	rows, err := s.inventoryRepo.FindLowStock()
	if err != nil {
		return nil, err
	}
	seen := map[uuid.UUID]bool{}
	products := []model.Product{}
	for _, inv := range rows {
		if inv.Product == nil || seen[inv.ProductID] {
			continue
		}
		seen[inv.ProductID] = true
		products = append(products, *inv.Product)
	}
	return products, nil
}

func (s *productService) Update(ctx context.Context, id uuid.UUID, req UpdateProductRequest, userID string) (*model.Product, error) {
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	product, err := s.productRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Category != nil {
		product.Category = strings.TrimSpace(*req.Category)
	}
	if req.UnitCost.Valid {
		if err := checkMoney(req.UnitCost.Decimal, "unit_cost"); err != nil {
			return nil, err
		}
		product.UnitCost = req.UnitCost.Decimal
	}
	if req.UnitPrice.Valid {
		if err := checkMoney(req.UnitPrice.Decimal, "unit_price"); err != nil {
			return nil, err
		}
		product.UnitPrice = req.UnitPrice
	}
	if req.Weight.Valid {
		product.Weight = req.Weight
	}
	if req.Dimensions != nil {
		product.Dimensions = *req.Dimensions
	}
	if req.ReorderPoint != nil {
		product.ReorderPoint = *req.ReorderPoint
	}
	if req.ReorderQuantity != nil {
		product.ReorderQuantity = *req.ReorderQuantity
	}
	if req.SupplierID != nil {
		if err := activeSupplier(s.db.WithContext(ctx), *req.SupplierID); err != nil {
			return nil, err
		}
		product.SupplierID = req.SupplierID
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	product.UpdatedBy = userID
	product.Supplier = nil

	if err := s.productRepo.Update(product); err != nil {
		return nil, err
	}

	s.logger.Info("product updated", zap.String("product_id", id.String()), zap.String("user_id", userID))
	s.notifier.CatalogChanged(ctx, "product", id, "updated", userID)
	return s.productRepo.FindByID(id)
}

// Deactivate is the soft delete: the product stays in history and reports
// but accepts no new movements.
func (s *productService) Deactivate(ctx context.Context, id uuid.UUID, userID string) error {
	if err := s.productRepo.SetActive(id, false, userID); err != nil {
		return err
	}
	s.logger.Info("product deactivated", zap.String("product_id", id.String()), zap.String("user_id", userID))
	s.notifier.CatalogChanged(ctx, "product", id, "deactivated", userID)
	return nil
}

// DeletePermanently removes a product that never moved stock. Empty ledger
// rows are dropped with it.
func (s *productService) DeletePermanently(ctx context.Context, id uuid.UUID, userID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product model.Product
		if err := tx.First(&product, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("product", id)
			}
			return err
		}

		txCount, err := s.transactionRepo.CountBy(tx, "product_id", id)
		if err != nil {
			return err
		}
		if txCount > 0 {
			return apperror.ConstraintViolation(
				fmt.Sprintf("product %s has %d transactions and cannot be deleted", product.SKU, txCount),
				"deactivate the product instead")
		}

		stocked, err := s.inventoryRepo.CountStocked(tx, "product_id", id)
		if err != nil {
			return err
		}
		if stocked > 0 {
			return apperror.ConstraintViolation(
				fmt.Sprintf("product %s still holds stock at %d locations", product.SKU, stocked), "")
		}

		if err := s.inventoryRepo.DeleteEmpty(tx, "product_id", id); err != nil {
			return err
		}
		return s.productRepo.Delete(tx, id)
	})
	if err != nil {
		return repository.TranslateError(err, "product")
	}

	s.logger.Info("product deleted", zap.String("product_id", id.String()), zap.String("user_id", userID))
	s.notifier.CatalogChanged(ctx, "product", id, "deleted", userID)
	return nil
}

func activeSupplier(tx *gorm.DB, id uuid.UUID) error {
	var supplier model.Supplier
	if err := tx.First(&supplier, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.Validation(fmt.Sprintf("supplier %s does not exist", id), "supplier_id")
		}
		return err
	}
	if !supplier.IsActive {
		return apperror.Validation(fmt.Sprintf("supplier %s is inactive", supplier.Name), "supplier_id")
	}
	return nil
}

func checkMoney(d decimal.Decimal, field string) error {
	if d.IsNegative() {
		return apperror.Validation(field+" must not be negative", field)
	}
	return nil
}
