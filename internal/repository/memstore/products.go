package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
)

type productRepo struct {
	scope
}

func checkProduct(p *model.Product) error {
	if p.Quantity < 0 || p.Quantity > 1_000_000 {
		return fmt.Errorf("check constraint chk_products_quantity violated: quantity %d", p.Quantity)
	}
	if p.Price.IsNegative() || p.Price.GreaterThan(decimal.NewFromInt(1_000_000)) {
		return fmt.Errorf("check constraint chk_products_price violated: price %s", p.Price)
	}
	return nil
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return r.write(ctx, "create product", func(st *state, now time.Time) error {
		if _, ok := st.companies[product.CompanyID]; !ok {
			return model.ErrNotFound
		}
		if err := checkProduct(product); err != nil {
			return err
		}
		if product.Country == "" {
			product.Country = "RSA"
		}
		st.lastProduct++
		product.ID = st.lastProduct
		product.CreatedAt = now
		product.UpdatedAt = now
		stored := *product
		stored.Company = nil
		st.products[product.ID] = stored
		return nil
	})
}

func (r *productRepo) find(ctx context.Context, op string, companyID, id uint) (*model.Product, error) {
	var found model.Product
	err := r.read(ctx, op, func(st *state) error {
		p, ok := st.products[id]
		if !ok || p.CompanyID != companyID {
			return model.ErrNotFound
		}
		found = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (r *productRepo) FindByID(ctx context.Context, companyID, id uint) (*model.Product, error) {
	return r.find(ctx, "find product", companyID, id)
}

// FindForUpdate needs no row lock here: transactions hold the store lock.
func (r *productRepo) FindForUpdate(ctx context.Context, companyID, id uint) (*model.Product, error) {
	return r.find(ctx, "lock product", companyID, id)
}

func (r *productRepo) FindPublic(ctx context.Context, id uint) (*model.Product, error) {
	var found model.Product
	err := r.read(ctx, "find product", func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return model.ErrNotFound
		}
		found = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (r *productRepo) Update(ctx context.Context, product *model.Product) error {
	return r.write(ctx, "update product", func(st *state, now time.Time) error {
		cur, ok := st.products[product.ID]
		if !ok || cur.CompanyID != product.CompanyID {
			return model.ErrNotFound
		}
		if err := checkProduct(product); err != nil {
			return err
		}
		product.CreatedAt = cur.CreatedAt
		product.UpdatedAt = now
		stored := *product
		stored.Company = nil
		st.products[product.ID] = stored
		return nil
	})
}

func (r *productRepo) Delete(ctx context.Context, companyID, id uint) error {
	return r.write(ctx, "delete product", func(st *state, _ time.Time) error {
		cur, ok := st.products[id]
		if !ok || cur.CompanyID != companyID {
			return model.ErrNotFound
		}
		delete(st.products, id)
		for fid, f := range st.feedback {
			if f.ProductID == id {
				delete(st.feedback, fid)
			}
		}
		return nil
	})
}

func (r *productRepo) filter(ctx context.Context, op string, keep func(p *model.Product) bool) ([]model.Product, error) {
	var out []model.Product
	err := r.read(ctx, op, func(st *state) error {
		for _, p := range st.products {
			if keep(&p) {
				out = append(out, p)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r *productRepo) FindByCompany(ctx context.Context, companyID uint) ([]model.Product, error) {
	return r.filter(ctx, "list products", func(p *model.Product) bool {
		return p.CompanyID == companyID
	})
}

func (r *productRepo) Search(ctx context.Context, companyID uint, query string) ([]model.Product, error) {
	q := strings.ToLower(query)
	return r.filter(ctx, "search products", func(p *model.Product) bool {
		return p.CompanyID == companyID &&
			(strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Category), q))
	})
}

func (r *productRepo) FindByCategory(ctx context.Context, companyID uint, category string) ([]model.Product, error) {
	return r.filter(ctx, "list products by category", func(p *model.Product) bool {
		return p.CompanyID == companyID && p.Category == category
	})
}

func (r *productRepo) TotalsByCountry(ctx context.Context, companyID uint) ([]repository.CountryTotal, error) {
	sums := map[string]decimal.Decimal{}
	err := r.read(ctx, "total value", func(st *state) error {
		for _, p := range st.products {
			if p.CompanyID != companyID {
				continue
			}
			sums[p.Country] = sums[p.Country].Add(p.Price.Mul(decimal.NewFromInt(int64(p.Quantity))))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	totals := make([]repository.CountryTotal, 0, len(sums))
	for country, total := range sums {
		totals = append(totals, repository.CountryTotal{Country: country, Total: total})
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Country < totals[j].Country })
	return totals, nil
}

func (r *productRepo) Catalog(ctx context.Context) ([]model.CatalogItem, error) {
	var items []model.CatalogItem
	err := r.read(ctx, "catalog", func(st *state) error {
		sums := map[uint]int64{}
		counts := map[uint]int64{}
		for _, f := range st.feedback {
			sums[f.ProductID] += int64(f.Rating)
			counts[f.ProductID]++
		}
		for _, p := range st.products {
			item := model.CatalogItem{
				ID:               p.ID,
				Name:             p.Name,
				Price:            p.Price,
				Category:         p.Category,
				Country:          p.Country,
				ShortDescription: p.ShortDescription,
				PhotoPath:        p.PhotoPath,
				FeedbackCount:    counts[p.ID],
			}
			if n := counts[p.ID]; n > 0 {
				item.AverageRating = float64(sums[p.ID]) / float64(n)
			}
			items = append(items, item)
		}
		return nil
	})
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, err
}
