package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/apperror"
	"go-inventory-ledger/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CreateLocationRequest struct {
	Name          string `json:"name" validate:"required,max=255"`
	Code          string `json:"code" validate:"max=50"`
	Address       string `json:"address"`
	WarehouseType string `json:"warehouse_type" validate:"max=50"`
	IsActive      *bool  `json:"is_active"`
}

type UpdateLocationRequest struct {
	Name          *string `json:"name" validate:"omitempty,min=1,max=255"`
	Code          *string `json:"code" validate:"omitempty,max=50"`
	Address       *string `json:"address"`
	WarehouseType *string `json:"warehouse_type" validate:"omitempty,max=50"`
	IsActive      *bool   `json:"is_active"`
}

type LocationSummary struct {
	LocationID     uuid.UUID       `json:"location_id"`
	LocationName   string          `json:"location_name"`
	LocationCode   *string         `json:"location_code"`
	TotalProducts  int             `json:"total_products"`
	TotalQuantity  int             `json:"total_quantity"`
	TotalReserved  int             `json:"total_reserved"`
	TotalAvailable int             `json:"total_available"`
	TotalValue     decimal.Decimal `json:"total_value"`
	IsActive       bool            `json:"is_active"`
}

type LocationActivity struct {
	LocationID         uuid.UUID           `json:"location_id"`
	LocationName       string              `json:"location_name"`
	PeriodDays         int                 `json:"period_days"`
	TotalTransactions  int                 `json:"total_transactions"`
	InTransactions     int                 `json:"in_transactions"`
	OutTransactions    int                 `json:"out_transactions"`
	TotalQuantityIn    int                 `json:"total_quantity_in"`
	TotalQuantityOut   int                 `json:"total_quantity_out"`
	NetChange          int                 `json:"net_change"`
	RecentTransactions []model.Transaction `json:"recent_transactions"`
	TransactionTypes   map[string]int      `json:"transaction_types"`
}

type LocationStatistics struct {
	TotalLocations          int64                      `json:"total_locations"`
	ActiveLocations         int64                      `json:"active_locations"`
	InactiveLocations       int64                      `json:"inactive_locations"`
	WarehouseTypes          []string                   `json:"warehouse_types"`
	TopLocationsByInventory []repository.LocationTotal `json:"top_locations_by_inventory"`
}

type LocationService interface {
	Create(ctx context.Context, req CreateLocationRequest, userID string) (*model.Location, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Location, error)
	GetByName(ctx context.Context, name string) (*model.Location, error)
	GetByCode(ctx context.Context, code string) (*model.Location, error)
	List(ctx context.Context, filter repository.LocationFilter) ([]model.Location, int64, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateLocationRequest, userID string) (*model.Location, error)
	Deactivate(ctx context.Context, id uuid.UUID, userID string) error
	DeletePermanently(ctx context.Context, id uuid.UUID, userID string) error
	InventorySummary(ctx context.Context, id uuid.UUID) (*LocationSummary, error)
	Activity(ctx context.Context, id uuid.UUID, days int) (*LocationActivity, error)
	Statistics(ctx context.Context) (*LocationStatistics, error)
	WarehouseTypes(ctx context.Context) ([]string, error)
	Empty(ctx context.Context) ([]model.Location, error)
	LowActivity(ctx context.Context, days, minTransactions int) ([]model.Location, error)
}

type locationService struct {
	db              *gorm.DB
	locationRepo    repository.LocationRepository
	inventoryRepo   repository.InventoryRepository
	transactionRepo repository.TransactionRepository
	paging          PageLimits
	notifier        *Notifier
	logger          *zap.Logger
}

func NewLocationService(
	db *gorm.DB,
	lRepo repository.LocationRepository,
	iRepo repository.InventoryRepository,
	tRepo repository.TransactionRepository,
	paging PageLimits,
	notifier *Notifier,
	logger *zap.Logger,
) LocationService {
	return &locationService{
		db:              db,
		locationRepo:    lRepo,
		inventoryRepo:   iRepo,
		transactionRepo: tRepo,
		paging:          paging,
		notifier:        notifier,
		logger:          logger,
	}
}

func (s *locationService) Create(ctx context.Context, req CreateLocationRequest, userID string) (*model.Location, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	location := &model.Location{
		Name:          req.Name,
		Code:          optionalCode(req.Code),
		Address:       req.Address,
		WarehouseType: strings.TrimSpace(req.WarehouseType),
		IsActive:      true,
	}
	if req.IsActive != nil {
		location.IsActive = *req.IsActive
	}
	location.CreatedBy = userID
	location.UpdatedBy = userID

	if err := s.ensureUnique(location.Name, location.Code, uuid.Nil); err != nil {
		return nil, err
	}
	if err := s.locationRepo.Create(location); err != nil {
		return nil, err
	}

	s.logger.Info("location created", zap.String("location_id", location.ID.String()), zap.String("name", location.Name))
	s.notifier.CatalogChanged(ctx, "location", location.ID, "created", userID)
	return location, nil
}

func (s *locationService) Get(ctx context.Context, id uuid.UUID) (*model.Location, error) {
	return s.locationRepo.FindByID(id)
}

func (s *locationService) GetByName(ctx context.Context, name string) (*model.Location, error) {
	return s.locationRepo.FindByName(name)
}

func (s *locationService) GetByCode(ctx context.Context, code string) (*model.Location, error) {
	return s.locationRepo.FindByCode(code)
}

func (s *locationService) List(ctx context.Context, filter repository.LocationFilter) ([]model.Location, int64, error) {
	page, err := s.paging.Normalize(filter.Page)
	if err != nil {
		return nil, 0, err
	}
	filter.Page = page
	return s.locationRepo.FindAll(filter)
}

func (s *locationService) Update(ctx context.Context, id uuid.UUID, req UpdateLocationRequest, userID string) (*model.Location, error) {
	if err := validator.Validate(req); err != nil {
		return nil, err
	}
	location, err := s.locationRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		location.Name = strings.TrimSpace(*req.Name)
	}
	if req.Code != nil {
		location.Code = optionalCode(*req.Code)
	}
	if req.Address != nil {
		location.Address = *req.Address
	}
	if req.WarehouseType != nil {
		location.WarehouseType = strings.TrimSpace(*req.WarehouseType)
	}
	if req.IsActive != nil && *req.IsActive != location.IsActive {
		if !*req.IsActive {
			if err := s.ensureEmpty(s.db.WithContext(ctx), location); err != nil {
				return nil, err
			}
		}
		location.IsActive = *req.IsActive
	}
	location.UpdatedBy = userID

	if err := s.ensureUnique(location.Name, location.Code, id); err != nil {
		return nil, err
	}
	if err := s.locationRepo.Update(location); err != nil {
		return nil, err
	}

	s.logger.Info("location updated", zap.String("location_id", id.String()), zap.String("user_id", userID))
	s.notifier.CatalogChanged(ctx, "location", id, "updated", userID)
	return location, nil
}

// Deactivate refuses while the location still holds stock.
func (s *locationService) Deactivate(ctx context.Context, id uuid.UUID, userID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		location, err := findLocation(tx, id)
		if err != nil {
			return err
		}
		if err := s.ensureEmpty(tx, location); err != nil {
			return err
		}
		return s.locationRepo.SetActive(tx, id, false, userID)
	})
	if err != nil {
		return repository.TranslateError(err, "location")
	}

	s.logger.Info("location deactivated", zap.String("location_id", id.String()), zap.String("user_id", userID))
	s.notifier.CatalogChanged(ctx, "location", id, "deactivated", userID)
	return nil
}

// DeletePermanently removes a location with no stock and no history.
// Auto-provisioned empty rows are removed first.
func (s *locationService) DeletePermanently(ctx context.Context, id uuid.UUID, userID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		location, err := findLocation(tx, id)
		if err != nil {
			return err
		}
		if err := s.ensureEmpty(tx, location); err != nil {
			return err
		}

		txCount, err := s.transactionRepo.CountBy(tx, "location_id", id)
		if err != nil {
			return err
		}
		if txCount > 0 {
			return apperror.ConstraintViolation(
				fmt.Sprintf("location %s has %d transactions and cannot be deleted", location.Name, txCount),
				"deactivate the location instead")
		}

		if err := s.inventoryRepo.DeleteEmpty(tx, "location_id", id); err != nil {
			return err
		}
		return s.locationRepo.Delete(tx, id)
	})
	if err != nil {
		return repository.TranslateError(err, "location")
	}

	s.logger.Warn("location permanently deleted", zap.String("location_id", id.String()), zap.String("user_id", userID))
	s.notifier.CatalogChanged(ctx, "location", id, "deleted", userID)
	return nil
}

func (s *locationService) InventorySummary(ctx context.Context, id uuid.UUID) (*LocationSummary, error) {
	location, err := s.locationRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	rows, err := s.inventoryRepo.FindByLocation(id)
	if err != nil {
		return nil, err
	}

	summary := &LocationSummary{
		LocationID:   location.ID,
		LocationName: location.Name,
		LocationCode: location.Code,
		TotalValue:   decimal.Zero,
		IsActive:     location.IsActive,
	}
	for _, inv := range rows {
		if inv.QuantityOnHand <= 0 {
			continue
		}
		summary.TotalProducts++
		summary.TotalQuantity += inv.QuantityOnHand
		summary.TotalReserved += inv.ReservedQuantity
		if a := inv.Available(); a > 0 {
			summary.TotalAvailable += a
		}
		if inv.Product != nil {
			summary.TotalValue = summary.TotalValue.Add(
				inv.Product.UnitCost.Mul(decimal.NewFromInt(int64(inv.QuantityOnHand))))
		}
	}
	return summary, nil
}

// Activity splits the rows of the last days days into inbound and outbound
// by the sign of their effect on on_hand.
func (s *locationService) Activity(ctx context.Context, id uuid.UUID, days int) (*LocationActivity, error) {
	if days <= 0 || days > 365 {
		return nil, apperror.Validation("days must be between 1 and 365", "days")
	}
	location, err := s.locationRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	rows, err := s.transactionRepo.FindSince(id, time.Now().UTC().AddDate(0, 0, -days))
	if err != nil {
		return nil, err
	}

	activity := &LocationActivity{
		LocationID:        location.ID,
		LocationName:      location.Name,
		PeriodDays:        days,
		TotalTransactions: len(rows),
		TransactionTypes:  map[string]int{},
	}
	for i := range rows {
		row := &rows[i]
		activity.TransactionTypes[string(row.TransactionType)]++
		switch d := row.Delta(); {
		case d > 0:
			activity.InTransactions++
			activity.TotalQuantityIn += d
		case d < 0:
			activity.OutTransactions++
			activity.TotalQuantityOut -= d
		}
	}
	activity.NetChange = activity.TotalQuantityIn - activity.TotalQuantityOut

	recent := rows
	if len(recent) > 10 {
		recent = recent[:10]
	}
	activity.RecentTransactions = recent
	return activity, nil
}

func (s *locationService) Statistics(ctx context.Context) (*LocationStatistics, error) {
	total, err := s.locationRepo.Count(false)
	if err != nil {
		return nil, err
	}
	active, err := s.locationRepo.Count(true)
	if err != nil {
		return nil, err
	}
	types, err := s.locationRepo.WarehouseTypes()
	if err != nil {
		return nil, err
	}
	top, err := s.locationRepo.TopByQuantity(5)
	if err != nil {
		return nil, err
	}
	if top == nil {
		top = []repository.LocationTotal{}
	}

	return &LocationStatistics{
		TotalLocations:          total,
		ActiveLocations:         active,
		InactiveLocations:       total - active,
		WarehouseTypes:          types,
		TopLocationsByInventory: top,
	}, nil
}

func (s *locationService) WarehouseTypes(ctx context.Context) ([]string, error) {
	return s.locationRepo.WarehouseTypes()
}

func (s *locationService) Empty(ctx context.Context) ([]model.Location, error) {
	return s.locationRepo.FindEmpty()
}

func (s *locationService) LowActivity(ctx context.Context, days, minTransactions int) ([]model.Location, error) {
	if days <= 0 || days > 365 {
		return nil, apperror.Validation("days must be between 1 and 365", "days")
	}
	if minTransactions <= 0 {
		return nil, apperror.Validation("min_transactions must be positive", "min_transactions")
	}
	return s.locationRepo.FindLowActivity(time.Now().UTC().AddDate(0, 0, -days), minTransactions)
}

func (s *locationService) ensureEmpty(tx *gorm.DB, location *model.Location) error {
	stocked, err := s.inventoryRepo.CountStocked(tx, "location_id", location.ID)
	if err != nil {
		return err
	}
	if stocked > 0 {
		return apperror.ConstraintViolation(
			fmt.Sprintf("location %s still holds stock for %d products", location.Name, stocked),
			"move or adjust inventory first")
	}
	return nil
}

func (s *locationService) ensureUnique(name string, code *string, self uuid.UUID) error {
	if existing, err := s.locationRepo.FindByName(name); err == nil && existing.ID != self {
		return apperror.ConstraintViolation(fmt.Sprintf("location with name '%s' already exists", name), "")
	} else if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return err
	}
	if code == nil {
		return nil
	}
	if existing, err := s.locationRepo.FindByCode(*code); err == nil && existing.ID != self {
		return apperror.ConstraintViolation(fmt.Sprintf("location with code '%s' already exists", *code), "")
	} else if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return err
	}
	return nil
}

func findLocation(tx *gorm.DB, id uuid.UUID) (*model.Location, error) {
	var location model.Location
	if err := tx.First(&location, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("location", id)
		}
		return nil, err
	}
	return &location, nil
}

func optionalCode(code string) *string {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil
	}
	return &code
}
