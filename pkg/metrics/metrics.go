// Package metrics holds the Prometheus collectors of the service. A nil *Metrics is
// valid and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "inventory"

type Metrics struct {
	// Ledger
	LedgerTransactions *prometheus.CounterVec

	// Failed service operations, ledger and feedback alike
	OperationErrors *prometheus.CounterVec

	// Notification fan-out
	FanoutDelivered prometheus.Counter
	FanoutDropped   prometheus.Counter
	WSConnections   prometheus.Gauge

	// Ledger event stream
	EventsPublished *prometheus.CounterVec

	// HTTP
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LedgerTransactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "transactions_total",
			Help:      "Ledger transactions committed, by type",
		}, []string{"type"}),
		OperationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "service",
			Name:      "errors_total",
			Help:      "Failed service operations, by component, operation and error kind",
		}, []string{"component", "op", "kind"}),
		FanoutDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fanout",
			Name:      "delivered_total",
			Help:      "Notifications queued to a connected listener",
		}),
		FanoutDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fanout",
			Name:      "dropped_total",
			Help:      "Notifications dropped because a queue was full",
		}),
		WSConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "fanout",
			Name:      "ws_connections",
			Help:      "Currently connected websocket listeners",
		}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Ledger events written to the event stream, by result",
		}, []string{"result"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(
		m.LedgerTransactions,
		m.OperationErrors,
		m.FanoutDelivered,
		m.FanoutDropped,
		m.WSConnections,
		m.EventsPublished,
		m.HTTPRequestDuration,
	)
	return m
}

func (m *Metrics) TransactionLogged(txType string) {
	if m == nil {
		return
	}
	m.LedgerTransactions.WithLabelValues(txType).Inc()
}

func (m *Metrics) OperationError(component, op, kind string) {
	if m == nil {
		return
	}
	m.OperationErrors.WithLabelValues(component, op, kind).Inc()
}

func (m *Metrics) Delivered(n int) {
	if m == nil || n == 0 {
		return
	}
	m.FanoutDelivered.Add(float64(n))
}

func (m *Metrics) Dropped() {
	if m == nil {
		return
	}
	m.FanoutDropped.Inc()
}

func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
}

func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
}

func (m *Metrics) EventPublished(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.EventsPublished.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
