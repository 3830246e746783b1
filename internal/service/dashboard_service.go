package service

import (
	"context"
	"time"

	"go-inventory-ledger/internal/repository"
)

// DashboardStats is the landing page overview.
type DashboardStats struct {
	Inventory      *InventorySummary   `json:"inventory"`
	LowStockAlerts int                 `json:"low_stock_alerts"`
	Today          *TransactionSummary `json:"today"`
}

type DashboardService interface {
	GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error)
	GetDashboardStats(ctx context.Context) (*DashboardStats, error)
}

type dashboardService struct {
	inventory InventoryQueryService
	history   TransactionQueryService
}

func NewDashboardService(inventory InventoryQueryService, history TransactionQueryService) DashboardService {
	return &dashboardService{inventory: inventory, history: history}
}

func (s *dashboardService) GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error) {
	return s.history.StockMovement(ctx, days)
}

func (s *dashboardService) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	summary, err := s.inventory.Summary(ctx)
	if err != nil {
		return nil, err
	}
	alerts, err := s.inventory.LowStockAlerts(ctx)
	if err != nil {
		return nil, err
	}

	startOfDay := time.Now().UTC().Truncate(24 * time.Hour)
	today, err := s.history.Summary(ctx, repository.TransactionFilter{StartDate: &startOfDay})
	if err != nil {
		return nil, err
	}

	return &DashboardStats{
		Inventory:      summary,
		LowStockAlerts: len(alerts),
		Today:          today,
	}, nil
}
