package service

import (
	"context"
	"errors"
	"fmt"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/apperror"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	ActionReserved = "reserved"
	ActionReleased = "released"
)

// ReservationService holds and releases stock without moving it.
// Reservations write no ledger transactions.
type ReservationService interface {
	Reserve(ctx context.Context, productID, locationID uuid.UUID, quantity int, userID string) (*model.Inventory, error)
	Release(ctx context.Context, productID, locationID uuid.UUID, quantity int, userID string) (*model.Inventory, error)
}

type reservationService struct {
	db            *gorm.DB
	inventoryRepo repository.InventoryRepository
	notifier      *Notifier
	logger        *zap.Logger
}

func NewReservationService(db *gorm.DB, iRepo repository.InventoryRepository, notifier *Notifier, logger *zap.Logger) ReservationService {
	return &reservationService{db: db, inventoryRepo: iRepo, notifier: notifier, logger: logger}
}

func (s *reservationService) Reserve(ctx context.Context, productID, locationID uuid.UUID, quantity int, userID string) (*model.Inventory, error) {
	if err := positiveQuantity(quantity); err != nil {
		return nil, err
	}

	var inv *model.Inventory
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := activeProduct(tx, productID); err != nil {
			return err
		}
		if _, err := activeLocation(tx, locationID); err != nil {
			return err
		}

		var err error
		inv, err = s.lock(tx, productID, locationID)
		if err != nil {
			return err
		}
		if inv.ReservedQuantity+quantity > inv.QuantityOnHand {
			return apperror.InsufficientAvailable(inv.Available(), quantity)
		}
		inv.ReservedQuantity += quantity
		return s.inventoryRepo.Save(tx, inv)
	})
	if err != nil {
		return nil, s.fail(ActionReserved, err)
	}

	s.logger.Info("stock reserved",
		zap.String("product_id", productID.String()),
		zap.String("location_id", locationID.String()),
		zap.Int("quantity", quantity),
		zap.Int("reserved", inv.ReservedQuantity),
		zap.String("user_id", userID),
	)
	s.notifier.ReservationChanged(ctx, ActionReserved, inv, quantity, userID)
	return inv, nil
}

// Release is allowed on inactive products and locations so holds can be
// cleared before a permanent delete.
func (s *reservationService) Release(ctx context.Context, productID, locationID uuid.UUID, quantity int, userID string) (*model.Inventory, error) {
	if err := positiveQuantity(quantity); err != nil {
		return nil, err
	}

	var inv *model.Inventory
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		inv, err = s.lock(tx, productID, locationID)
		if err != nil {
			return err
		}
		if quantity > inv.ReservedQuantity {
			return apperror.InvalidTransaction(
				fmt.Sprintf("cannot release %d units, only %d reserved", quantity, inv.ReservedQuantity))
		}
		inv.ReservedQuantity -= quantity
		return s.inventoryRepo.Save(tx, inv)
	})
	if err != nil {
		return nil, s.fail(ActionReleased, err)
	}

	s.logger.Info("stock released",
		zap.String("product_id", productID.String()),
		zap.String("location_id", locationID.String()),
		zap.Int("quantity", quantity),
		zap.Int("reserved", inv.ReservedQuantity),
		zap.String("user_id", userID),
	)
	s.notifier.ReservationChanged(ctx, ActionReleased, inv, quantity, userID)
	return inv, nil
}

func (s *reservationService) lock(tx *gorm.DB, productID, locationID uuid.UUID) (*model.Inventory, error) {
	inv, err := s.inventoryRepo.FindForUpdate(tx, productID, locationID)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.NotFound("inventory", fmt.Sprintf("%s/%s", productID, locationID))
	}
	return inv, err
}

func (s *reservationService) fail(action string, err error) error {
	err = repository.TranslateError(err, "inventory")
	if apperror.From(err).Code == apperror.CodeInternal {
		s.logger.Error("reservation failed", zap.String("action", action), zap.Error(err))
	} else {
		s.logger.Debug("reservation rejected", zap.String("action", action), zap.Error(err))
	}
	return err
}
