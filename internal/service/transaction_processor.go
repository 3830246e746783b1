package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/apperror"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TransactionResult is what a committed (or replayed) request produced.
type TransactionResult struct {
	Transactions []model.Transaction `json:"transactions"`
	Inventory    []model.Inventory   `json:"inventory,omitempty"`
	Replayed     bool                `json:"replayed"`
}

// BatchItemResult reports the outcome of one batch entry.
type BatchItemResult struct {
	Index  int                     `json:"index"`
	Result *TransactionResult      `json:"result,omitempty"`
	Error  *apperror.StandardError `json:"error,omitempty"`
}

type TransactionProcessor interface {
	Process(ctx context.Context, req TransactionRequest) (*TransactionResult, error)
	ProcessBatch(ctx context.Context, reqs []TransactionRequest) []BatchItemResult

	Receipt(ctx context.Context, req ReceiptRequest) (*TransactionResult, error)
	Shipment(ctx context.Context, req ShipmentRequest) (*TransactionResult, error)
	Transfer(ctx context.Context, req TransferRequest) (*TransactionResult, error)
	Adjustment(ctx context.Context, req AdjustmentRequest) (*TransactionResult, error)
	Recount(ctx context.Context, req RecountRequest) (*TransactionResult, error)
}

type transactionProcessor struct {
	db              *gorm.DB
	inventoryRepo   repository.InventoryRepository
	transactionRepo repository.TransactionRepository
	cfg             LedgerConfig
	notifier        *Notifier
	logger          *zap.Logger
}

func NewTransactionProcessor(
	db *gorm.DB,
	iRepo repository.InventoryRepository,
	tRepo repository.TransactionRepository,
	cfg LedgerConfig,
	notifier *Notifier,
	logger *zap.Logger,
) TransactionProcessor {
	return &transactionProcessor{
		db:              db,
		inventoryRepo:   iRepo,
		transactionRepo: tRepo,
		cfg:             cfg,
		notifier:        notifier,
		logger:          logger,
	}
}

func (s *transactionProcessor) Receipt(ctx context.Context, req ReceiptRequest) (*TransactionResult, error) {
	return s.Process(ctx, &req)
}

func (s *transactionProcessor) Shipment(ctx context.Context, req ShipmentRequest) (*TransactionResult, error) {
	return s.Process(ctx, &req)
}

func (s *transactionProcessor) Transfer(ctx context.Context, req TransferRequest) (*TransactionResult, error) {
	return s.Process(ctx, &req)
}

func (s *transactionProcessor) Adjustment(ctx context.Context, req AdjustmentRequest) (*TransactionResult, error) {
	return s.Process(ctx, &req)
}

func (s *transactionProcessor) Recount(ctx context.Context, req RecountRequest) (*TransactionResult, error) {
	return s.Process(ctx, &req)
}

// Process validates and applies one request as a single unit of work.
// Nothing is retried here; ConcurrentModification goes back to the caller.
func (s *transactionProcessor) Process(ctx context.Context, req TransactionRequest) (*TransactionResult, error) {
	if req == nil {
		return nil, apperror.InvalidTransaction("empty transaction request")
	}
	if err := req.check(); err != nil {
		s.logger.Debug("transaction rejected", zap.String("type", string(req.Kind())), zap.Error(err))
		return nil, err
	}

	var result *TransactionResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if key := req.meta().IdempotencyKey; key != "" {
			prior, err := s.transactionRepo.FindByIdempotencyKey(tx, req.keyLocation(), key)
			if err != nil {
				return err
			}
			if len(prior) > 0 {
				result = &TransactionResult{Transactions: prior, Replayed: true}
				return nil
			}
		}

		var err error
		switch r := req.(type) {
		case *ReceiptRequest:
			result, err = s.receipt(tx, r)
		case *ShipmentRequest:
			result, err = s.shipment(tx, r)
		case *TransferRequest:
			result, err = s.transfer(tx, r)
		case *AdjustmentRequest:
			result, err = s.adjust(tx, r.ProductID, r.LocationID, r.Quantity, r.Reason, &r.RequestMeta)
		case *RecountRequest:
			result, err = s.recount(tx, r)
		default:
			err = apperror.InvalidTransaction(fmt.Sprintf("unsupported request %T", req))
		}
		return err
	})
	if err != nil {
		err = repository.TranslateError(err, "transaction")
		if errors.Is(err, apperror.ErrConcurrentModification) {
			s.logger.Warn("transaction conflict", zap.String("type", string(req.Kind())), zap.Error(err))
		} else if apperror.From(err).Code == apperror.CodeInternal {
			s.logger.Error("transaction failed", zap.String("type", string(req.Kind())), zap.Error(err))
		} else {
			s.logger.Debug("transaction rejected", zap.String("type", string(req.Kind())), zap.Error(err))
		}
		return nil, err
	}

	if result.Replayed {
		s.logger.Info("idempotent replay", zap.String("idempotency_key", req.meta().IdempotencyKey))
		return result, nil
	}

	for _, row := range result.Transactions {
		s.logger.Info("stock movement recorded",
			zap.String("transaction_id", row.ID.String()),
			zap.String("type", string(row.TransactionType)),
			zap.String("product_id", row.ProductID.String()),
			zap.String("location_id", row.LocationID.String()),
			zap.Int("quantity", row.Quantity),
			zap.Int("quantity_after", row.QuantityAfter),
			zap.String("user_id", row.UserID),
		)
	}
	s.notifier.MovementCommitted(ctx, result.Transactions, result.Inventory)
	return result, nil
}

// ProcessBatch runs each request as its own unit of work, in order.
func (s *transactionProcessor) ProcessBatch(ctx context.Context, reqs []TransactionRequest) []BatchItemResult {
	results := make([]BatchItemResult, 0, len(reqs))
	for i, req := range reqs {
		res, err := s.Process(ctx, req)
		item := BatchItemResult{Index: i, Result: res}
		if err != nil {
			item.Error = apperror.From(err)
		}
		results = append(results, item)
	}
	return results
}

func (s *transactionProcessor) receipt(tx *gorm.DB, r *ReceiptRequest) (*TransactionResult, error) {
	if _, err := activeProduct(tx, r.ProductID); err != nil {
		return nil, err
	}
	if _, err := activeLocation(tx, r.LocationID); err != nil {
		return nil, err
	}

	inv, err := s.acquire(tx, r.ProductID, r.LocationID)
	if err != nil {
		return nil, err
	}
	inv.QuantityOnHand += r.Quantity
	if err := s.inventoryRepo.Save(tx, inv); err != nil {
		return nil, err
	}

	row := newRow(inv, model.TxIn, r.Quantity, r.Notes, &r.RequestMeta)
	if err := s.transactionRepo.Create(tx, row); err != nil {
		return nil, err
	}
	return single(row, inv), nil
}

func (s *transactionProcessor) shipment(tx *gorm.DB, r *ShipmentRequest) (*TransactionResult, error) {
	if _, err := activeProduct(tx, r.ProductID); err != nil {
		return nil, err
	}
	if _, err := activeLocation(tx, r.LocationID); err != nil {
		return nil, err
	}

	inv, err := s.acquireForDecrease(tx, r.ProductID, r.LocationID, r.Quantity)
	if err != nil {
		return nil, err
	}
	if err := s.checkDecrease(inv, r.Quantity); err != nil {
		return nil, err
	}
	inv.QuantityOnHand -= r.Quantity
	if err := s.inventoryRepo.Save(tx, inv); err != nil {
		return nil, err
	}

	row := newRow(inv, model.TxOut, r.Quantity, r.Notes, &r.RequestMeta)
	if err := s.transactionRepo.Create(tx, row); err != nil {
		return nil, err
	}
	return single(row, inv), nil
}

func (s *transactionProcessor) transfer(tx *gorm.DB, r *TransferRequest) (*TransactionResult, error) {
	if _, err := activeProduct(tx, r.ProductID); err != nil {
		return nil, err
	}
	from, err := activeLocation(tx, r.FromLocationID)
	if err != nil {
		return nil, err
	}
	to, err := activeLocation(tx, r.ToLocationID)
	if err != nil {
		return nil, err
	}

	// Rows are locked in ascending location id order so two opposite
	// transfers cannot deadlock.
	var src, dst *model.Inventory
	for _, locID := range lockOrder(r.FromLocationID, r.ToLocationID) {
		if locID == r.FromLocationID {
			src, err = s.acquireForDecrease(tx, r.ProductID, locID, r.Quantity)
		} else {
			dst, err = s.acquire(tx, r.ProductID, locID)
		}
		if err != nil {
			return nil, err
		}
	}

	if err := s.checkDecrease(src, r.Quantity); err != nil {
		return nil, err
	}
	src.QuantityOnHand -= r.Quantity
	dst.QuantityOnHand += r.Quantity
	if err := s.inventoryRepo.Save(tx, src); err != nil {
		return nil, err
	}
	if err := s.inventoryRepo.Save(tx, dst); err != nil {
		return nil, err
	}

	transferID := uuid.New()
	meta := r.RequestMeta
	if meta.ReferenceNumber == "" {
		meta.ReferenceNumber = "TRF-" + strings.ToUpper(transferID.String()[:8])
	}

	out := newRow(src, model.TxTransfer, -r.Quantity, withNotes("Transfer to "+to.Name, r.Notes), &meta)
	in := newRow(dst, model.TxTransfer, r.Quantity, withNotes("Transfer from "+from.Name, r.Notes), &meta)
	out.TransferID = &transferID
	in.TransferID = &transferID
	if err := s.transactionRepo.Create(tx, out, in); err != nil {
		return nil, err
	}

	return &TransactionResult{
		Transactions: []model.Transaction{*out, *in},
		Inventory:    []model.Inventory{*src, *dst},
	}, nil
}

func (s *transactionProcessor) adjust(tx *gorm.DB, productID, locationID uuid.UUID, delta int, reason string, meta *RequestMeta) (*TransactionResult, error) {
	if _, err := activeProduct(tx, productID); err != nil {
		return nil, err
	}
	if _, err := activeLocation(tx, locationID); err != nil {
		return nil, err
	}

	var inv *model.Inventory
	var err error
	if delta > 0 {
		inv, err = s.acquire(tx, productID, locationID)
	} else {
		inv, err = s.acquireForDecrease(tx, productID, locationID, -delta)
	}
	if err != nil {
		return nil, err
	}
	return s.applyAdjustment(tx, inv, delta, reason, meta)
}

func (s *transactionProcessor) recount(tx *gorm.DB, r *RecountRequest) (*TransactionResult, error) {
	if _, err := activeProduct(tx, r.ProductID); err != nil {
		return nil, err
	}
	if _, err := activeLocation(tx, r.LocationID); err != nil {
		return nil, err
	}

	inv, err := s.acquire(tx, r.ProductID, r.LocationID)
	if err != nil {
		return nil, err
	}
	delta := r.CountedQuantity - inv.QuantityOnHand
	if delta == 0 {
		return nil, apperror.InvalidTransaction("counted quantity matches quantity on hand")
	}
	return s.applyAdjustment(tx, inv, delta, r.Reason, &r.RequestMeta)
}

func (s *transactionProcessor) applyAdjustment(tx *gorm.DB, inv *model.Inventory, delta int, reason string, meta *RequestMeta) (*TransactionResult, error) {
	if delta < 0 {
		if err := s.checkDecrease(inv, -delta); err != nil {
			return nil, err
		}
	}
	inv.QuantityOnHand += delta
	if err := s.inventoryRepo.Save(tx, inv); err != nil {
		return nil, err
	}

	row := newRow(inv, model.TxAdjustment, delta, reason, meta)
	if err := s.transactionRepo.Create(tx, row); err != nil {
		return nil, err
	}
	return single(row, inv), nil
}

// acquire locks the ledger row, provisioning a zero row when allowed.
func (s *transactionProcessor) acquire(tx *gorm.DB, productID, locationID uuid.UUID) (*model.Inventory, error) {
	inv, err := s.inventoryRepo.FindForUpdate(tx, productID, locationID)
	if err == nil {
		return inv, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}
	if !s.cfg.AutoCreateInventoryRecords {
		return nil, apperror.LocationNotProvisioned(productID, locationID)
	}

	inv = &model.Inventory{ProductID: productID, LocationID: locationID}
	if err := s.inventoryRepo.Create(tx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// acquireForDecrease is acquire for movements that remove stock. A missing
// row holds nothing, so it is InsufficientStock unless negative stock is allowed.
func (s *transactionProcessor) acquireForDecrease(tx *gorm.DB, productID, locationID uuid.UUID, q int) (*model.Inventory, error) {
	if s.cfg.AllowNegativeInventory {
		return s.acquire(tx, productID, locationID)
	}
	inv, err := s.inventoryRepo.FindForUpdate(tx, productID, locationID)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.InsufficientStock(0, 0, q)
	}
	return inv, err
}

// checkDecrease enforces on_hand - q >= reserved (and so >= 0).
func (s *transactionProcessor) checkDecrease(inv *model.Inventory, q int) error {
	if s.cfg.AllowNegativeInventory {
		return nil
	}
	if inv.QuantityOnHand-q < 0 || inv.QuantityOnHand-q < inv.ReservedQuantity {
		return apperror.InsufficientStock(inv.QuantityOnHand, inv.ReservedQuantity, q)
	}
	return nil
}

func activeProduct(tx *gorm.DB, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	if err := tx.First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("product", id)
		}
		return nil, repository.TranslateError(err, "product")
	}
	if !p.IsActive {
		return nil, apperror.InvalidTransaction(fmt.Sprintf("product %s is inactive", p.SKU))
	}
	return &p, nil
}

func activeLocation(tx *gorm.DB, id uuid.UUID) (*model.Location, error) {
	var l model.Location
	if err := tx.First(&l, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("location", id)
		}
		return nil, repository.TranslateError(err, "location")
	}
	if !l.IsActive {
		return nil, apperror.InvalidTransaction(fmt.Sprintf("location %s is inactive", l.Name))
	}
	return &l, nil
}

func lockOrder(a, b uuid.UUID) []uuid.UUID {
	if bytes.Compare(a[:], b[:]) <= 0 {
		return []uuid.UUID{a, b}
	}
	return []uuid.UUID{b, a}
}

func newRow(inv *model.Inventory, kind model.TransactionType, quantity int, notes string, meta *RequestMeta) *model.Transaction {
	row := &model.Transaction{
		ProductID:       inv.ProductID,
		LocationID:      inv.LocationID,
		TransactionType: kind,
		Quantity:        quantity,
		QuantityAfter:   inv.QuantityOnHand,
		ReferenceNumber: meta.ReferenceNumber,
		Notes:           strings.TrimSpace(notes),
		UserID:          meta.UserID,
	}
	if meta.IdempotencyKey != "" {
		key := meta.IdempotencyKey
		row.IdempotencyKey = &key
	}
	return row
}

func withNotes(base, extra string) string {
	if extra = strings.TrimSpace(extra); extra != "" {
		return base + ": " + extra
	}
	return base
}

func single(row *model.Transaction, inv *model.Inventory) *TransactionResult {
	return &TransactionResult{
		Transactions: []model.Transaction{*row},
		Inventory:    []model.Inventory{*inv},
	}
}
