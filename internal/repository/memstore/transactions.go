package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
)

type transactionRepo struct {
	scope
}

func (r *transactionRepo) Create(ctx context.Context, tx *model.Transaction) error {
	return r.write(ctx, "log transaction", func(st *state, now time.Time) error {
		for _, existing := range st.txs {
			if existing.Ref == tx.Ref {
				return model.ErrDuplicate
			}
		}
		st.lastTx++
		tx.ID = st.lastTx
		tx.CreatedAt = now
		st.txs = append(st.txs, *tx)
		return nil
	})
}

func (r *transactionRepo) FindByCompany(ctx context.Context, companyID uint) ([]model.Transaction, error) {
	var out []model.Transaction
	err := r.read(ctx, "list transactions", func(st *state) error {
		for _, t := range st.txs {
			if t.CompanyID == companyID {
				out = append(out, t)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, err
}

func (r *transactionRepo) GetStockMovement(ctx context.Context, companyID uint, startDate, endDate time.Time) ([]repository.StockMovementData, error) {
	days := map[string]*repository.StockMovementData{}
	err := r.read(ctx, "stock movement", func(st *state) error {
		for _, t := range st.txs {
			if t.CompanyID != companyID || t.CreatedAt.Before(startDate) || t.CreatedAt.After(endDate) {
				continue
			}
			date := t.CreatedAt.UTC().Format("2006-01-02")
			d, ok := days[date]
			if !ok {
				d = &repository.StockMovementData{Date: date}
				days[date] = d
			}
			if t.Type.Inbound() {
				d.Inbound += t.Quantity
			} else {
				d.Outbound += t.Quantity
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	results := make([]repository.StockMovementData, 0, len(days))
	for _, d := range days {
		results = append(results, *d)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Date < results[j].Date })
	return results, nil
}

func (r *transactionRepo) GetDashboardStats(ctx context.Context, companyID uint, lowStockThreshold int) (*repository.DashboardStats, error) {
	stats := &repository.DashboardStats{TotalValuation: decimal.Zero}
	err := r.read(ctx, "dashboard stats", func(st *state) error {
		for _, p := range st.products {
			if p.CompanyID != companyID {
				continue
			}
			stats.TotalProducts++
			if p.Quantity < lowStockThreshold {
				stats.LowStockCount++
			}
			stats.TotalValuation = stats.TotalValuation.Add(p.Price.Mul(decimal.NewFromInt(int64(p.Quantity))))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	stats.TotalValuation = stats.TotalValuation.Round(2)
	return stats, nil
}
