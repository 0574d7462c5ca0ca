package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, f.companyA, "Low", "2.50", 3)
	f.create(t, f.companyA, "High", "1", 50)
	f.create(t, f.companyB, "Other", "100", 1)

	svc := NewDashboardService(f.store.Transactions(), 10)
	stats, err := svc.GetDashboardStats(ctx, f.companyA)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalProducts)
	assert.Equal(t, int64(1), stats.LowStockCount)
	assertDecimal(t, "57.50", stats.TotalValuation)
}

func TestStockMovement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	day := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	f.store.SetClock(func() time.Time { return day })
	p := f.create(t, f.companyA, "Widget", "1", 10)
	_, err := f.svc.UpdateQuantity(ctx, f.companyA, p.ID, -4)
	require.NoError(t, err)
	f.store.SetClock(func() time.Time { return day.AddDate(0, 0, 1) })
	_, err = f.svc.UpdateQuantity(ctx, f.companyA, p.ID, 6)
	require.NoError(t, err)

	svc := &dashboardService{
		txRepo: f.store.Transactions(),
		now:    func() time.Time { return day.AddDate(0, 0, 2) },
	}
	movement, err := svc.GetStockMovement(ctx, f.companyA, 0)
	require.NoError(t, err)
	require.Len(t, movement, 2)
	assert.Equal(t, "2024-05-10", movement[0].Date)
	assert.Equal(t, 10, movement[0].Inbound)
	assert.Equal(t, 4, movement[0].Outbound)
	assert.Equal(t, "2024-05-11", movement[1].Date)
	assert.Equal(t, 6, movement[1].Inbound)

	other, err := svc.GetStockMovement(ctx, f.companyB, 7)
	require.NoError(t, err)
	assert.Empty(t, other)
}
