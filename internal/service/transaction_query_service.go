package service

import (
	"context"
	"time"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/apperror"

	"github.com/google/uuid"
)

// TransactionSummary totals the ledger over a filter.
type TransactionSummary struct {
	TotalTransactions int64                   `json:"total_transactions"`
	TotalIn           int64                   `json:"total_quantity_in"`
	TotalOut          int64                   `json:"total_quantity_out"`
	NetChange         int64                   `json:"net_change"`
	ByType            []repository.TypeTotals `json:"by_type"`
}

type TransactionQueryService interface {
	List(ctx context.Context, filter repository.TransactionFilter) ([]model.Transaction, int64, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	ProductHistory(ctx context.Context, productID uuid.UUID, limit int) ([]model.Transaction, error)
	LocationHistory(ctx context.Context, locationID uuid.UUID, limit int) ([]model.Transaction, error)
	Summary(ctx context.Context, filter repository.TransactionFilter) (*TransactionSummary, error)
	StockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error)
}

type transactionQueryService struct {
	txRepo       repository.TransactionRepository
	productRepo  repository.ProductRepository
	locationRepo repository.LocationRepository
	paging       PageLimits
}

func NewTransactionQueryService(
	txRepo repository.TransactionRepository,
	pRepo repository.ProductRepository,
	lRepo repository.LocationRepository,
	paging PageLimits,
) TransactionQueryService {
	return &transactionQueryService{txRepo: txRepo, productRepo: pRepo, locationRepo: lRepo, paging: paging}
}

func (s *transactionQueryService) List(ctx context.Context, filter repository.TransactionFilter) ([]model.Transaction, int64, error) {
	if err := checkRange(filter); err != nil {
		return nil, 0, err
	}
	page, err := s.paging.Normalize(filter.Page)
	if err != nil {
		return nil, 0, err
	}
	filter.Page = page
	return s.txRepo.FindAll(filter)
}

func (s *transactionQueryService) Get(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	return s.txRepo.FindByID(id)
}

func (s *transactionQueryService) ProductHistory(ctx context.Context, productID uuid.UUID, limit int) ([]model.Transaction, error) {
	limit, err := s.paging.history(limit)
	if err != nil {
		return nil, err
	}
	if _, err := s.productRepo.FindByID(productID); err != nil {
		return nil, err
	}
	return s.txRepo.FindRecent("product_id", productID, limit)
}

func (s *transactionQueryService) LocationHistory(ctx context.Context, locationID uuid.UUID, limit int) ([]model.Transaction, error) {
	limit, err := s.paging.history(limit)
	if err != nil {
		return nil, err
	}
	if _, err := s.locationRepo.FindByID(locationID); err != nil {
		return nil, err
	}
	return s.txRepo.FindRecent("location_id", locationID, limit)
}

func (s *transactionQueryService) Summary(ctx context.Context, filter repository.TransactionFilter) (*TransactionSummary, error) {
	if err := checkRange(filter); err != nil {
		return nil, err
	}
	totals, err := s.txRepo.Summary(filter)
	if err != nil {
		return nil, err
	}
	if totals == nil {
		totals = []repository.TypeTotals{}
	}

	summary := &TransactionSummary{ByType: totals}
	for _, t := range totals {
		summary.TotalTransactions += t.Count
		summary.TotalIn += t.QuantityIn
		summary.TotalOut += t.QuantityOut
	}
	summary.NetChange = summary.TotalIn - summary.TotalOut
	return summary, nil
}

// StockMovement returns daily inbound/outbound units for the last days days.
func (s *transactionQueryService) StockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error) {
	if days <= 0 || days > 365 {
		return nil, apperror.Validation("days must be between 1 and 365", "days")
	}
	endDate := time.Now().UTC()
	startDate := endDate.AddDate(0, 0, -days)
	return s.txRepo.GetStockMovement(startDate, endDate)
}

func checkRange(filter repository.TransactionFilter) error {
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return apperror.Validation("end_date must not be before start_date", "end_date")
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return apperror.Validation("unknown transaction type "+string(filter.Type), "transaction_type")
	}
	return nil
}
