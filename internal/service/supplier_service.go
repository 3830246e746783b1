package service

import (
	"context"
	"errors"
	"fmt"
	"math"
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

// ReviewThreshold is the rating below which a supplier needs review.
const ReviewThreshold = 3.0

type CreateSupplierRequest struct {
	Name            string `json:"name" validate:"required,max=255"`
	ContactPerson   string `json:"contact_person" validate:"max=255"`
	Email           string `json:"email" validate:"omitempty,email,max=255"`
	Phone           string `json:"phone" validate:"max=50"`
	Address         string `json:"address"`
	LeadTimeDays    int    `json:"lead_time_days" validate:"min=0"`
	PaymentTerms    string `json:"payment_terms" validate:"max=100"`
	MinimumOrderQty int    `json:"minimum_order_qty" validate:"min=0"`
	IsActive        *bool  `json:"is_active"`
}

type UpdateSupplierRequest struct {
	Name            *string `json:"name" validate:"omitempty,min=1,max=255"`
	ContactPerson   *string `json:"contact_person" validate:"omitempty,max=255"`
	Email           *string `json:"email" validate:"omitempty,email,max=255"`
	Phone           *string `json:"phone" validate:"omitempty,max=50"`
	Address         *string `json:"address"`
	LeadTimeDays    *int    `json:"lead_time_days" validate:"omitempty,min=0"`
	PaymentTerms    *string `json:"payment_terms" validate:"omitempty,max=100"`
	MinimumOrderQty *int    `json:"minimum_order_qty" validate:"omitempty,min=0"`
	IsActive        *bool   `json:"is_active"`
}

type SupplierPerformance struct {
	SupplierID            uuid.UUID `json:"supplier_id"`
	SupplierName          string    `json:"supplier_name"`
	TotalProducts         int       `json:"total_products"`
	ActiveProducts        int       `json:"active_products"`
	TotalReceipts         int64     `json:"total_receipts"`
	TotalQuantityReceived int64     `json:"total_quantity_received"`
	AvgLeadTime           int       `json:"avg_lead_time"`
	PerformanceScore      float64   `json:"performance_score"`
}

type SupplierRank struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	PerformanceRating *float64  `json:"performance_rating"`
	LeadTimeDays      int       `json:"lead_time_days"`
}

type SupplierStatistics struct {
	TotalSuppliers      int64          `json:"total_suppliers"`
	ActiveSuppliers     int64          `json:"active_suppliers"`
	AverageLeadTimeDays float64        `json:"average_lead_time_days"`
	TopSuppliers        []SupplierRank `json:"top_suppliers"`
}

type SupplierService interface {
	Create(ctx context.Context, req CreateSupplierRequest, userID string) (*model.Supplier, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Supplier, error)
	GetByName(ctx context.Context, name string) (*model.Supplier, error)
	List(ctx context.Context, filter repository.SupplierFilter) ([]model.Supplier, int64, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateSupplierRequest, userID string) (*model.Supplier, error)
	Deactivate(ctx context.Context, id uuid.UUID, userID string) error
	DeletePermanently(ctx context.Context, id uuid.UUID, userID string) error
	Products(ctx context.Context, id uuid.UUID, activeOnly bool) ([]model.Product, error)
	Performance(ctx context.Context, id uuid.UUID) (*SupplierPerformance, error)
	UpdateRating(ctx context.Context, id uuid.UUID, rating *float64, userID string) (*model.Supplier, error)
	RecomputeRatings(ctx context.Context, userID string) (int, error)
	Statistics(ctx context.Context) (*SupplierStatistics, error)
	NeedingReview(ctx context.Context) ([]model.Supplier, error)
}

type supplierService struct {
	db              *gorm.DB
	supplierRepo    repository.SupplierRepository
	productRepo     repository.ProductRepository
	transactionRepo repository.TransactionRepository
	paging          PageLimits
	notifier        *Notifier
	logger          *zap.Logger
}

func NewSupplierService(
	db *gorm.DB,
	sRepo repository.SupplierRepository,
	pRepo repository.ProductRepository,
	tRepo repository.TransactionRepository,
	paging PageLimits,
	notifier *Notifier,
	logger *zap.Logger,
) SupplierService {
	return &supplierService{
		db:              db,
		supplierRepo:    sRepo,
		productRepo:     pRepo,
		transactionRepo: tRepo,
		paging:          paging,
		notifier:        notifier,
		logger:          logger,
	}
}

func (s *supplierService) Create(ctx context.Context, req CreateSupplierRequest, userID string) (*model.Supplier, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validator.Validate(req); err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(req.Name, uuid.Nil); err != nil {
		return nil, err
	}

	supplier := &model.Supplier{
		Name:            req.Name,
		ContactPerson:   req.ContactPerson,
		Email:           req.Email,
		Phone:           req.Phone,
		Address:         req.Address,
		LeadTimeDays:    req.LeadTimeDays,
		PaymentTerms:    req.PaymentTerms,
		MinimumOrderQty: req.MinimumOrderQty,
		IsActive:        true,
	}
	if req.IsActive != nil {
		supplier.IsActive = *req.IsActive
	}
	supplier.CreatedBy = userID
	supplier.UpdatedBy = userID

	if err := s.supplierRepo.Create(supplier); err != nil {
		return nil, err
	}

	s.logger.Info("supplier created", zap.String("supplier_id", supplier.ID.String()), zap.String("name", supplier.Name))
	s.notifier.CatalogChanged(ctx, "supplier", supplier.ID, "created", userID)
	return supplier, nil
}

func (s *supplierService) Get(ctx context.Context, id uuid.UUID) (*model.Supplier, error) {
	return s.supplierRepo.FindByID(id)
}

func (s *supplierService) GetByName(ctx context.Context, name string) (*model.Supplier, error) {
	return s.supplierRepo.FindByName(name)
}

func (s *supplierService) List(ctx context.Context, filter repository.SupplierFilter) ([]model.Supplier, int64, error) {
	page, err := s.paging.Normalize(filter.Page)
	if err != nil {
		return nil, 0, err
	}
	filter.Page = page
	return s.supplierRepo.FindAll(filter)
}

func (s *supplierService) Update(ctx context.Context, id uuid.UUID, req UpdateSupplierRequest, userID string) (*model.Supplier, error) {
	if err := validator.Validate(req); err != nil {
		return nil, err
	}
	supplier, err := s.supplierRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name != supplier.Name {
			if err := s.ensureNameFree(name, id); err != nil {
				return nil, err
			}
		}
		supplier.Name = name
	}
	if req.ContactPerson != nil {
		supplier.ContactPerson = *req.ContactPerson
	}
	if req.Email != nil {
		supplier.Email = *req.Email
	}
	if req.Phone != nil {
		supplier.Phone = *req.Phone
	}
	if req.Address != nil {
		supplier.Address = *req.Address
	}
	if req.LeadTimeDays != nil {
		supplier.LeadTimeDays = *req.LeadTimeDays
	}
	if req.PaymentTerms != nil {
		supplier.PaymentTerms = *req.PaymentTerms
	}
	if req.MinimumOrderQty != nil {
		supplier.MinimumOrderQty = *req.MinimumOrderQty
	}
	if req.IsActive != nil {
		supplier.IsActive = *req.IsActive
	}
	supplier.UpdatedBy = userID

	if err := s.supplierRepo.Update(supplier); err != nil {
		return nil, err
	}

	s.logger.Info("supplier updated", zap.String("supplier_id", id.String()), zap.String("user_id", userID))
	s.notifier.CatalogChanged(ctx, "supplier", id, "updated", userID)
	return supplier, nil
}

// Deactivate refuses while the supplier still has active products.
func (s *supplierService) Deactivate(ctx context.Context, id uuid.UUID, userID string) error {
	supplier, err := s.supplierRepo.FindByID(id)
	if err != nil {
		return err
	}
	active, err := s.productRepo.FindBySupplier(id, true)
	if err != nil {
		return err
	}
	if len(active) > 0 {
		return apperror.ConstraintViolation(
			fmt.Sprintf("cannot deactivate supplier with %d active products", len(active)),
			"deactivate the products first or reassign them to another supplier")
	}

	supplier.IsActive = false
	supplier.UpdatedBy = userID
	if err := s.supplierRepo.Update(supplier); err != nil {
		return err
	}

	s.logger.Info("supplier deactivated", zap.String("supplier_id", id.String()), zap.String("user_id", userID))
	s.notifier.CatalogChanged(ctx, "supplier", id, "deactivated", userID)
	return nil
}

func (s *supplierService) DeletePermanently(ctx context.Context, id uuid.UUID, userID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var supplier model.Supplier
		if err := tx.First(&supplier, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("supplier", id)
			}
			return err
		}
		var n int64
		if err := tx.Model(&model.Product{}).Where("supplier_id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return apperror.ConstraintViolation(
				fmt.Sprintf("supplier %s is referenced by %d products", supplier.Name, n), "")
		}
		return s.supplierRepo.Delete(tx, id)
	})
	if err != nil {
		return repository.TranslateError(err, "supplier")
	}

	s.logger.Info("supplier deleted", zap.String("supplier_id", id.String()), zap.String("user_id", userID))
	s.notifier.CatalogChanged(ctx, "supplier", id, "deleted", userID)
	return nil
}

func (s *supplierService) Products(ctx context.Context, id uuid.UUID, activeOnly bool) ([]model.Product, error) {
	if _, err := s.supplierRepo.FindByID(id); err != nil {
		return nil, err
	}
	return s.productRepo.FindBySupplier(id, activeOnly)
}

// Performance scores a supplier from 0 to 5 as the mean of an activity score
// (receipts / 10, capped at 5) and a lead time score (5 - lead_time / 10,
// floored at 0). Suppliers with no receipts score 0.
func (s *supplierService) Performance(ctx context.Context, id uuid.UUID) (*SupplierPerformance, error) {
	supplier, err := s.supplierRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	products, err := s.productRepo.FindBySupplier(id, false)
	if err != nil {
		return nil, err
	}

	perf := &SupplierPerformance{
		SupplierID:    supplier.ID,
		SupplierName:  supplier.Name,
		TotalProducts: len(products),
		AvgLeadTime:   supplier.LeadTimeDays,
	}
	ids := make([]uuid.UUID, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
		if p.IsActive {
			perf.ActiveProducts++
		}
	}

	receipts, err := s.transactionRepo.Receipts(ids)
	if err != nil {
		return nil, err
	}
	perf.TotalReceipts = receipts.Receipts
	perf.TotalQuantityReceived = receipts.QuantityReceived
	perf.PerformanceScore = performanceScore(receipts.Receipts, supplier.LeadTimeDays)
	return perf, nil
}

func performanceScore(receipts int64, leadTimeDays int) float64 {
	if receipts == 0 {
		return 0
	}
	activity := math.Min(5, float64(receipts)/10)
	leadTime := math.Max(0, 5-float64(leadTimeDays)/10)
	return decimal.NewFromFloat((activity + leadTime) / 2).Round(2).InexactFloat64()
}

// UpdateRating stores a manual rating, or the computed score when rating is nil.
func (s *supplierService) UpdateRating(ctx context.Context, id uuid.UUID, rating *float64, userID string) (*model.Supplier, error) {
	var value float64
	if rating != nil {
		if *rating < 0 || *rating > 5 {
			return nil, apperror.Validation("rating must be between 0 and 5", "performance_rating")
		}
		value = decimal.NewFromFloat(*rating).Round(2).InexactFloat64()
	} else {
		perf, err := s.Performance(ctx, id)
		if err != nil {
			return nil, err
		}
		value = perf.PerformanceScore
	}

	if err := s.supplierRepo.UpdateRating(id, value); err != nil {
		return nil, err
	}
	s.logger.Info("supplier rating updated",
		zap.String("supplier_id", id.String()),
		zap.Float64("rating", value),
		zap.Bool("manual", rating != nil),
		zap.String("user_id", userID),
	)
	s.notifier.CatalogChanged(ctx, "supplier", id, "rated", userID)
	return s.supplierRepo.FindByID(id)
}

// RecomputeRatings recalculates every active supplier. Failures are logged
// and skipped; the count of updated suppliers is returned.
func (s *supplierService) RecomputeRatings(ctx context.Context, userID string) (int, error) {
	active := true
	suppliers, _, err := s.supplierRepo.FindAll(repository.SupplierFilter{IsActive: &active})
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, sup := range suppliers {
		perf, err := s.Performance(ctx, sup.ID)
		if err == nil {
			err = s.supplierRepo.UpdateRating(sup.ID, perf.PerformanceScore)
		}
		if err != nil {
			s.logger.Warn("failed to recompute supplier rating", zap.String("supplier_id", sup.ID.String()), zap.Error(err))
			continue
		}
		updated++
	}

	s.logger.Info("supplier ratings recomputed", zap.Int("updated", updated), zap.String("user_id", userID))
	return updated, nil
}

func (s *supplierService) Statistics(ctx context.Context) (*SupplierStatistics, error) {
	total, err := s.supplierRepo.Count(false)
	if err != nil {
		return nil, err
	}
	active, err := s.supplierRepo.Count(true)
	if err != nil {
		return nil, err
	}
	avg, err := s.supplierRepo.AverageLeadTime()
	if err != nil {
		return nil, err
	}
	top, err := s.supplierRepo.TopRated(5)
	if err != nil {
		return nil, err
	}

	stats := &SupplierStatistics{
		TotalSuppliers:      total,
		ActiveSuppliers:     active,
		AverageLeadTimeDays: decimal.NewFromFloat(avg).Round(1).InexactFloat64(),
		TopSuppliers:        make([]SupplierRank, 0, len(top)),
	}
	for _, sup := range top {
		stats.TopSuppliers = append(stats.TopSuppliers, SupplierRank{
			ID:                sup.ID,
			Name:              sup.Name,
			PerformanceRating: sup.PerformanceRating,
			LeadTimeDays:      sup.LeadTimeDays,
		})
	}
	return stats, nil
}

func (s *supplierService) NeedingReview(ctx context.Context) ([]model.Supplier, error) {
	return s.supplierRepo.FindNeedingReview(ReviewThreshold)
}

func (s *supplierService) ensureNameFree(name string, self uuid.UUID) error {
	existing, err := s.supplierRepo.FindByName(name)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != self {
		return apperror.ConstraintViolation(fmt.Sprintf("supplier with name '%s' already exists", name), "")
	}
	return nil
}
