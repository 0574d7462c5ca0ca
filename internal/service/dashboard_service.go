package service

import (
	"context"
	"time"

	"go-inventory-ledger/internal/repository"
)

type DashboardService interface {
	GetStockMovement(ctx context.Context, companyID uint, days int) ([]repository.StockMovementData, error)
	GetDashboardStats(ctx context.Context, companyID uint) (*repository.DashboardStats, error)
}

type dashboardService struct {
	txRepo            repository.TransactionRepository
	lowStockThreshold int
	now               func() time.Time
}

func NewDashboardService(txRepo repository.TransactionRepository, lowStockThreshold int) DashboardService {
	return &dashboardService{txRepo: txRepo, lowStockThreshold: lowStockThreshold, now: time.Now}
}

func (s *dashboardService) GetStockMovement(ctx context.Context, companyID uint, days int) ([]repository.StockMovementData, error) {
	if days <= 0 {
		days = 7
	}
	endDate := s.now()
	startDate := endDate.AddDate(0, 0, -days)

	data, err := s.txRepo.GetStockMovement(ctx, companyID, startDate, endDate)
	if data == nil {
		data = []repository.StockMovementData{}
	}
	return data, err
}

func (s *dashboardService) GetDashboardStats(ctx context.Context, companyID uint) (*repository.DashboardStats, error) {
	return s.txRepo.GetDashboardStats(ctx, companyID, s.lowStockThreshold)
}
