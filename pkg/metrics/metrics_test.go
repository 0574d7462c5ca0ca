package metrics_test

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"go-inventory-ledger/pkg/metrics"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.TransactionLogged("ADD")
		m.OperationError("ledger", "create", "validation")
		m.Delivered(3)
		m.Dropped()
		m.ConnectionOpened()
		m.ConnectionClosed()
		m.EventPublished(nil)
	})
}

func TestCounters(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	m.TransactionLogged("SALE")
	m.TransactionLogged("SALE")
	m.Dropped()
	m.EventPublished(errors.New("broker down"))
	m.ConnectionOpened()
	m.OperationError("feedback", "create_feedback", "not_found")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LedgerTransactions.WithLabelValues("SALE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FanoutDropped))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsPublished.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WSConnections))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OperationErrors.WithLabelValues("feedback", "create_feedback", "not_found")))
}
