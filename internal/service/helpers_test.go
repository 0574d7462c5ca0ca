package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository/memstore"
	"go-inventory-ledger/internal/ws"
	"go-inventory-ledger/pkg/metrics"
)

type published struct {
	Topic   ws.Topic
	Kind    string
	Payload interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(topic ws.Topic, kind string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{Topic: topic, Kind: kind, Payload: payload})
}

func (p *recordingPublisher) has(topic ws.Topic, kind string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.events {
		if e.Topic == topic && e.Kind == kind {
			return true
		}
	}
	return false
}

func (p *recordingPublisher) onTopic(topic ws.Topic) []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []published
	for _, e := range p.events {
		if e.Topic == topic {
			out = append(out, e)
		}
	}
	return out
}

type recordingSink struct {
	ch chan []model.Transaction
}

func (s *recordingSink) Emit(_ context.Context, txs []model.Transaction) {
	s.ch <- txs
}

type fixture struct {
	store    *memstore.Store
	svc      InventoryService
	pub      *recordingPublisher
	sink     *recordingSink
	metrics  *metrics.Metrics
	companyA uint
	companyB uint
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	f := &fixture{
		store:   store,
		pub:     &recordingPublisher{},
		sink:    &recordingSink{ch: make(chan []model.Transaction, 64)},
		metrics: metrics.New(prometheus.NewRegistry()),
	}
	f.svc = NewInventoryService(InventoryDeps{
		Products:     store.Products(),
		Transactions: store.Transactions(),
		Tx:           store,
		Publisher:    f.pub,
		Sink:         f.sink,
		Log:          zerolog.Nop(),
		Metrics:      f.metrics,
		StoreTimeout: time.Second,
	})
	f.companyA = createCompany(t, store, "Acme")
	f.companyB = createCompany(t, store, "Globex")
	return f
}

func createCompany(t *testing.T, store *memstore.Store, name string) uint {
	t.Helper()
	c := &model.Company{Name: name}
	require.NoError(t, store.Companies().Create(context.Background(), c))
	return c.ID
}

func (f *fixture) create(t *testing.T, companyID uint, name string, price string, qty float64) *model.Product {
	t.Helper()
	p, err := f.svc.CreateProduct(context.Background(), companyID, input(name, price, qty, "tools", "US"))
	require.NoError(t, err)
	return p
}

// input builds a payload with every field present.
func input(name, price string, qty float64, category, country string) model.ProductInput {
	amount := decimal.RequireFromString(price)
	return model.ProductInput{Name: name, Price: &amount, Quantity: &qty, Category: category, Country: &country}
}

func (f *fixture) transactions(t *testing.T, companyID uint) []model.Transaction {
	t.Helper()
	txs, err := f.svc.GetTransactions(context.Background(), companyID)
	require.NoError(t, err)
	return txs
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}
