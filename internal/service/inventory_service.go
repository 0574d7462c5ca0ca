package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/ws"
	"go-inventory-ledger/pkg/currency"
	"go-inventory-ledger/pkg/metrics"
	"go-inventory-ledger/pkg/validator"
)

const (
	maxShortDescription = 255
	maxPhotoPath        = 255
	notifyTimeout       = 5 * time.Second
)

// Publisher delivers a notification to the listeners of one topic. Implementations must
// not block the caller for long.
type Publisher interface {
	Publish(topic ws.Topic, kind string, payload interface{})
}

// TransactionSink receives ledger entries after their store transaction committed.
type TransactionSink interface {
	Emit(ctx context.Context, txs []model.Transaction)
}

// InventoryService is the ledger: the only writer of transactions. Every quantity change
// and its transaction commit together; notifications follow the commit asynchronously.
type InventoryService interface {
	CreateProduct(ctx context.Context, companyID uint, in model.ProductInput) (*model.Product, error)
	EditProduct(ctx context.Context, companyID, id uint, in model.ProductInput) (*model.Product, error)
	RemoveProduct(ctx context.Context, companyID, id uint) error
	UpdateQuantity(ctx context.Context, companyID, id uint, delta float64) (*model.Product, error)
	GetProduct(ctx context.Context, companyID, id uint) (*model.Product, error)
	GetProductsForCompany(ctx context.Context, companyID uint) ([]model.Product, error)
	SearchProducts(ctx context.Context, companyID uint, query string) ([]model.Product, error)
	GetProductsByCategory(ctx context.Context, companyID uint, category string) ([]model.Product, error)
	GetTotalValue(ctx context.Context, companyID uint) (*model.TotalValue, error)
	GetTransactions(ctx context.Context, companyID uint) ([]model.Transaction, error)
	ExportToCSV(ctx context.Context, companyID uint, w io.Writer) error
}

// InventoryDeps wires the ledger. Sink and Metrics are optional.
type InventoryDeps struct {
	Products     repository.ProductRepository
	Transactions repository.TransactionRepository
	Tx           repository.TxRunner
	Publisher    Publisher
	Sink         TransactionSink
	Log          zerolog.Logger
	Metrics      *metrics.Metrics
	StoreTimeout time.Duration
}

type inventoryService struct {
	productRepo     repository.ProductRepository
	transactionRepo repository.TransactionRepository
	tx              repository.TxRunner
	publisher       Publisher
	sink            TransactionSink
	log             zerolog.Logger
	metrics         *metrics.Metrics
	timeout         time.Duration
}

func NewInventoryService(deps InventoryDeps) InventoryService {
	timeout := deps.StoreTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &inventoryService{
		productRepo:     deps.Products,
		transactionRepo: deps.Transactions,
		tx:              deps.Tx,
		publisher:       deps.Publisher,
		sink:            deps.Sink,
		log:             deps.Log.With().Str("component", "ledger").Logger(),
		metrics:         deps.Metrics,
		timeout:         timeout,
	}
}

func (s *inventoryService) CreateProduct(ctx context.Context, companyID uint, in model.ProductInput) (*model.Product, error) {
	const op = "create_product"
	product, err := productFromInput(in)
	if err != nil {
		return nil, s.fail(op, err)
	}
	product.CompanyID = companyID

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var logged []model.Transaction
	err = s.tx.Run(ctx, func(products repository.ProductRepository, txs repository.TransactionRepository) error {
		if err := products.Create(ctx, product); err != nil {
			return err
		}
		// The initial stock is logged even when it is zero.
		t, err := logTransaction(ctx, txs, product, model.TxAdd, product.Quantity)
		if err != nil {
			return err
		}
		logged = append(logged, *t)
		return nil
	})
	if err != nil {
		return nil, s.fail(op, err)
	}

	s.committed(logged)
	snapshot := *product
	s.log.Info().Uint("company_id", companyID).Uint("product_id", product.ID).Msg("product created")
	go func() {
		s.publish(ws.CompanyTopic(companyID), ws.KindProductAdded, snapshot)
		s.publish(ws.CatalogTopic, ws.KindProductAdded, catalogItem(&snapshot))
		s.refreshTenant(companyID, true)
	}()
	return product, nil
}

func (s *inventoryService) EditProduct(ctx context.Context, companyID, id uint, in model.ProductInput) (*model.Product, error) {
	const op = "edit_product"
	if _, err := validator.ValidateID(id); err != nil {
		return nil, s.fail(op, err)
	}
	next, err := productFromInput(in)
	if err != nil {
		return nil, s.fail(op, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var updated *model.Product
	var logged []model.Transaction
	err = s.tx.Run(ctx, func(products repository.ProductRepository, txs repository.TransactionRepository) error {
		cur, err := products.FindForUpdate(ctx, companyID, id)
		if err != nil {
			return err
		}
		old := cur.Quantity

		cur.Name = next.Name
		cur.Price = next.Price
		cur.Quantity = next.Quantity
		cur.Category = next.Category
		cur.Country = next.Country
		cur.ShortDescription = next.ShortDescription
		cur.PhotoPath = next.PhotoPath
		if err := products.Update(ctx, cur); err != nil {
			return err
		}

		if delta := cur.Quantity - old; delta != 0 {
			t, err := logTransaction(ctx, txs, cur, movementType(delta), abs(delta))
			if err != nil {
				return err
			}
			logged = append(logged, *t)
		}
		updated = cur
		return nil
	})
	if err != nil {
		return nil, s.fail(op, err)
	}

	s.committed(logged)
	snapshot := *updated
	go func() {
		s.publish(ws.CompanyTopic(companyID), ws.KindProductUpdated, snapshot)
		s.publish(ws.CatalogTopic, ws.KindProductUpdated, catalogItem(&snapshot))
		s.refreshTenant(companyID, len(logged) > 0)
	}()
	return updated, nil
}

func (s *inventoryService) RemoveProduct(ctx context.Context, companyID, id uint) error {
	const op = "remove_product"
	if _, err := validator.ValidateID(id); err != nil {
		return s.fail(op, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var logged []model.Transaction
	err := s.tx.Run(ctx, func(products repository.ProductRepository, txs repository.TransactionRepository) error {
		cur, err := products.FindForUpdate(ctx, companyID, id)
		if err != nil {
			return err
		}
		if err := products.Delete(ctx, companyID, id); err != nil {
			return err
		}
		t, err := logTransaction(ctx, txs, cur, model.TxRemove, cur.Quantity)
		if err != nil {
			return err
		}
		logged = append(logged, *t)
		return nil
	})
	if err != nil {
		return s.fail(op, err)
	}

	s.committed(logged)
	s.log.Info().Uint("company_id", companyID).Uint("product_id", id).Msg("product removed")
	go func() {
		s.refreshTenant(companyID, true)
		s.refreshCatalog()
	}()
	return nil
}

func (s *inventoryService) UpdateQuantity(ctx context.Context, companyID, id uint, delta float64) (*model.Product, error) {
	const op = "update_quantity"
	if _, err := validator.ValidateID(id); err != nil {
		return nil, s.fail(op, err)
	}
	change, err := validator.ValidateQuantityChange(delta)
	if err != nil {
		return nil, s.fail(op, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var updated *model.Product
	var logged []model.Transaction
	err = s.tx.Run(ctx, func(products repository.ProductRepository, txs repository.TransactionRepository) error {
		cur, err := products.FindForUpdate(ctx, companyID, id)
		if err != nil {
			return err
		}
		updated = cur
		if change == 0 {
			return nil
		}

		next := cur.Quantity + change
		if next < 0 {
			return &model.InsufficientStockError{ProductID: id, Available: cur.Quantity, Requested: -change}
		}
		if next > validator.MaxQuantity {
			return &validator.ValidationError{
				Field:   "quantity_change",
				Value:   delta,
				Message: fmt.Sprintf("resulting quantity %d exceeds 1,000,000", next),
			}
		}

		cur.Quantity = next
		if err := products.Update(ctx, cur); err != nil {
			return err
		}
		t, err := logTransaction(ctx, txs, cur, movementType(change), abs(change))
		if err != nil {
			return err
		}
		logged = append(logged, *t)
		return nil
	})
	if err != nil {
		return nil, s.fail(op, err)
	}
	if len(logged) == 0 {
		return updated, nil
	}

	s.committed(logged)
	snapshot := *updated
	go func() {
		s.publish(ws.CompanyTopic(companyID), ws.KindProductUpdated, snapshot)
		s.refreshTenant(companyID, true)
	}()
	return updated, nil
}

func (s *inventoryService) GetProduct(ctx context.Context, companyID, id uint) (*model.Product, error) {
	if _, err := validator.ValidateID(id); err != nil {
		return nil, s.fail("get_product", err)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	product, err := s.productRepo.FindByID(ctx, companyID, id)
	return product, s.fail("get_product", err)
}

func (s *inventoryService) GetProductsForCompany(ctx context.Context, companyID uint) ([]model.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	products, err := s.productRepo.FindByCompany(ctx, companyID)
	return nonNil(products), s.fail("list_products", err)
}

func (s *inventoryService) SearchProducts(ctx context.Context, companyID uint, query string) ([]model.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	products, err := s.productRepo.Search(ctx, companyID, query)
	return nonNil(products), s.fail("search_products", err)
}

func (s *inventoryService) GetProductsByCategory(ctx context.Context, companyID uint, category string) ([]model.Product, error) {
	category, err := validator.ValidateCategory(category)
	if err != nil {
		return nil, s.fail("products_by_category", err)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	products, err := s.productRepo.FindByCategory(ctx, companyID, category)
	return nonNil(products), s.fail("products_by_category", err)
}

func (s *inventoryService) GetTotalValue(ctx context.Context, companyID uint) (*model.TotalValue, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	totals, err := s.productRepo.TotalsByCountry(ctx, companyID)
	if err != nil {
		return nil, s.fail("total_value", err)
	}

	result := &model.TotalValue{Total: decimal.Zero, ByCountry: []model.CountryValue{}}
	for _, t := range totals {
		result.Total = result.Total.Add(t.Total)
		result.ByCountry = append(result.ByCountry, model.NewCountryValue(t.Country, t.Total))
	}
	result.Total = result.Total.Round(2)
	return result, nil
}

func (s *inventoryService) GetTransactions(ctx context.Context, companyID uint) ([]model.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	txs, err := s.transactionRepo.FindByCompany(ctx, companyID)
	if txs == nil {
		txs = []model.Transaction{}
	}
	return txs, s.fail("list_transactions", err)
}

// CSVHeader is the first row of ExportToCSV.
var CSVHeader = []string{"ID", "Name", "Price", "Quantity", "Category", "Country", "Last Updated", "Total Value"}

// ExportToCSV writes the tenant's products, each amount in its own currency.
func (s *inventoryService) ExportToCSV(ctx context.Context, companyID uint, w io.Writer) error {
	products, err := s.GetProductsForCompany(ctx, companyID)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("export csv: %w", err)
	}
	for i := range products {
		p := &products[i]
		record := []string{
			strconv.FormatUint(uint64(p.ID), 10),
			p.Name,
			currency.Format(p.Price, p.Country),
			strconv.Itoa(p.Quantity),
			p.Category,
			p.Country,
			p.UpdatedAt.UTC().Format(time.RFC3339),
			currency.Format(p.Value(), p.Country),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("export csv: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export csv: %w", err)
	}
	return nil
}

// logTransaction appends one ledger entry. It must run inside the store transaction of
// the mutation it records.
func logTransaction(ctx context.Context, txs repository.TransactionRepository, p *model.Product, txType model.TransactionType, quantity int) (*model.Transaction, error) {
	t := model.NewTransaction(p, txType, quantity)
	if err := txs.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func productFromInput(in model.ProductInput) (*model.Product, error) {
	name, err := validator.ValidateName(in.Name)
	if err != nil {
		return nil, err
	}
	if in.Price == nil {
		return nil, missing("price")
	}
	price, err := validator.ValidatePrice(*in.Price)
	if err != nil {
		return nil, err
	}
	if in.Quantity == nil {
		return nil, missing("quantity")
	}
	quantity, err := validator.ValidateQuantity(*in.Quantity)
	if err != nil {
		return nil, err
	}
	category, err := validator.ValidateCategory(in.Category)
	if err != nil {
		return nil, err
	}
	if in.Country == nil {
		return nil, missing("country")
	}
	country, err := validator.ValidateCountry(*in.Country)
	if err != nil {
		return nil, err
	}
	description, err := validator.ValidateText("short_description", in.ShortDescription, maxShortDescription)
	if err != nil {
		return nil, err
	}
	photo, err := validator.ValidateText("photo_path", in.PhotoPath, maxPhotoPath)
	if err != nil {
		return nil, err
	}
	return &model.Product{
		Name:             name,
		Price:            price,
		Quantity:         quantity,
		Category:         category,
		Country:          country,
		ShortDescription: description,
		PhotoPath:        photo,
	}, nil
}

func missing(field string) error {
	return &validator.ValidationError{Field: field, Message: "is required"}
}

func movementType(delta int) model.TransactionType {
	if delta > 0 {
		return model.TxRestock
	}
	return model.TxSale
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func nonNil(products []model.Product) []model.Product {
	if products == nil {
		return []model.Product{}
	}
	return products
}

func catalogItem(p *model.Product) model.CatalogItem {
	return model.CatalogItem{
		ID:               p.ID,
		Name:             p.Name,
		Price:            p.Price,
		Category:         p.Category,
		Country:          p.Country,
		ShortDescription: p.ShortDescription,
		PhotoPath:        p.PhotoPath,
	}
}

// committed runs once the store transaction is durable.
func (s *inventoryService) committed(logged []model.Transaction) {
	for _, t := range logged {
		s.metrics.TransactionLogged(string(t.Type))
		s.log.Debug().
			Str("ref", t.Ref.String()).
			Str("type", string(t.Type)).
			Int("quantity", t.Quantity).
			Uint("company_id", t.CompanyID).
			Msg("transaction logged")
	}
	if s.sink != nil && len(logged) > 0 {
		go s.sink.Emit(context.Background(), logged)
	}
}

func (s *inventoryService) publish(topic ws.Topic, kind string, payload interface{}) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(topic, kind, payload)
}

// refreshTenant pushes the tenant's current product list and, when a transaction was
// logged, its transaction history.
func (s *inventoryService) refreshTenant(companyID uint, withTransactions bool) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	products, err := s.productRepo.FindByCompany(ctx, companyID)
	if err != nil {
		s.log.Error().Err(err).Uint("company_id", companyID).Msg("refresh product list")
	} else {
		s.publish(ws.CompanyTopic(companyID), ws.KindInventoryUpdate, nonNil(products))
	}

	if !withTransactions {
		return
	}
	txs, err := s.transactionRepo.FindByCompany(ctx, companyID)
	if err != nil {
		s.log.Error().Err(err).Uint("company_id", companyID).Msg("refresh transaction list")
		return
	}
	if txs == nil {
		txs = []model.Transaction{}
	}
	s.publish(ws.CompanyTopic(companyID), ws.KindTransactionUpdate, txs)
}

func (s *inventoryService) refreshCatalog() {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	items, err := s.productRepo.Catalog(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("refresh catalog")
		return
	}
	if items == nil {
		items = []model.CatalogItem{}
	}
	s.publish(ws.CatalogTopic, ws.KindInventoryUpdate, items)
}

func (s *inventoryService) fail(op string, err error) error {
	return recordFailure(s.log, s.metrics, "ledger", op, err)
}
