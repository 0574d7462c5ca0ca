package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"go-inventory-ledger/internal/model"
)

// TransactionRepository appends to and reads the ledger. There is no update or delete.
type TransactionRepository interface {
	Create(ctx context.Context, tx *model.Transaction) error
	FindByCompany(ctx context.Context, companyID uint) ([]model.Transaction, error)
	GetStockMovement(ctx context.Context, companyID uint, startDate, endDate time.Time) ([]StockMovementData, error)
	GetDashboardStats(ctx context.Context, companyID uint, lowStockThreshold int) (*DashboardStats, error)
}

// StockMovementData is one day of the stock movement chart
type StockMovementData struct {
	Date     string `json:"date"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

// DashboardStats for the overview cards
type DashboardStats struct {
	TotalProducts  int64           `json:"total_products"`
	LowStockCount  int64           `json:"low_stock_count"`
	TotalValuation decimal.Decimal `json:"total_valuation"`
}

type transactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db}
}

func (r *transactionRepo) Create(ctx context.Context, tx *model.Transaction) error {
	return storeErr("log transaction", r.db.WithContext(ctx).Create(tx).Error)
}

func (r *transactionRepo) FindByCompany(ctx context.Context, companyID uint) ([]model.Transaction, error) {
	var transactions []model.Transaction
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at DESC, id DESC").
		Find(&transactions).Error
	return transactions, storeErr("list transactions", err)
}

func (r *transactionRepo) GetStockMovement(ctx context.Context, companyID uint, startDate, endDate time.Time) ([]StockMovementData, error) {
	var results []StockMovementData

	// Aggregate movements per day
	rows, err := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Select(`
			TO_CHAR(DATE(created_at), 'YYYY-MM-DD') as date,
			COALESCE(SUM(CASE WHEN type IN ('ADD', 'RESTOCK') THEN quantity ELSE 0 END), 0) as inbound,
			COALESCE(SUM(CASE WHEN type IN ('SALE', 'REMOVE') THEN quantity ELSE 0 END), 0) as outbound
		`).
		Where("company_id = ? AND created_at BETWEEN ? AND ?", companyID, startDate, endDate).
		Group("DATE(created_at)").
		Order("date ASC").
		Rows()
	if err != nil {
		return nil, storeErr("stock movement", err)
	}
	defer rows.Close()

	for rows.Next() {
		var data StockMovementData
		if err := rows.Scan(&data.Date, &data.Inbound, &data.Outbound); err != nil {
			return nil, storeErr("stock movement", err)
		}
		results = append(results, data)
	}

	return results, storeErr("stock movement", rows.Err())
}

func (r *transactionRepo) GetDashboardStats(ctx context.Context, companyID uint, lowStockThreshold int) (*DashboardStats, error) {
	var stats DashboardStats
	products := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&model.Product{}).Where("company_id = ?", companyID)
	}

	if err := products().Count(&stats.TotalProducts).Error; err != nil {
		return nil, storeErr("dashboard stats", err)
	}

	if err := products().Where("quantity < ?", lowStockThreshold).Count(&stats.LowStockCount).Error; err != nil {
		return nil, storeErr("dashboard stats", err)
	}

	if err := products().Select("COALESCE(SUM(quantity * price), 0)").Scan(&stats.TotalValuation).Error; err != nil {
		return nil, storeErr("dashboard stats", err)
	}
	stats.TotalValuation = stats.TotalValuation.Round(2)

	return &stats, nil
}
