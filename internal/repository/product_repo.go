package repository

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"go-inventory-ledger/internal/model"
)

// ProductRepository is scoped by company on every tenant read and write. A product of
// another company is reported as model.ErrNotFound.
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, companyID, id uint) (*model.Product, error)
	// FindForUpdate locks the row until the surrounding transaction ends.
	FindForUpdate(ctx context.Context, companyID, id uint) (*model.Product, error)
	FindPublic(ctx context.Context, id uint) (*model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, companyID, id uint) error
	FindByCompany(ctx context.Context, companyID uint) ([]model.Product, error)
	Search(ctx context.Context, companyID uint, query string) ([]model.Product, error)
	FindByCategory(ctx context.Context, companyID uint, category string) ([]model.Product, error)
	TotalsByCountry(ctx context.Context, companyID uint) ([]CountryTotal, error)
	Catalog(ctx context.Context) ([]model.CatalogItem, error)
}

// CountryTotal is the unrounded Σ(price × quantity) of one currency.
type CountryTotal struct {
	Country string
	Total   decimal.Decimal
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return storeErr("create product", r.db.WithContext(ctx).Create(product).Error)
}

func (r *productRepo) FindByID(ctx context.Context, companyID, id uint) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).Where("id = ? AND company_id = ?", id, companyID).First(&product).Error
	if err != nil {
		return nil, storeErr("find product", err)
	}
	return &product, nil
}

func (r *productRepo) FindForUpdate(ctx context.Context, companyID, id uint) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND company_id = ?", id, companyID).
		First(&product).Error
	if err != nil {
		return nil, storeErr("lock product", err)
	}
	return &product, nil
}

func (r *productRepo) FindPublic(ctx context.Context, id uint) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, storeErr("find product", err)
	}
	return &product, nil
}

func (r *productRepo) Update(ctx context.Context, product *model.Product) error {
	res := r.db.WithContext(ctx).
		Model(product).
		Where("company_id = ?", product.CompanyID).
		Select("name", "price", "quantity", "category", "country", "short_description", "photo_path", "updated_at").
		Updates(product)
	if res.Error != nil {
		return storeErr("update product", res.Error)
	}
	if res.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *productRepo) Delete(ctx context.Context, companyID, id uint) error {
	res := r.db.WithContext(ctx).Where("id = ? AND company_id = ?", id, companyID).Delete(&model.Product{})
	if res.Error != nil {
		return storeErr("delete product", res.Error)
	}
	if res.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *productRepo) FindByCompany(ctx context.Context, companyID uint) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Where("company_id = ?", companyID).Order("id ASC").Find(&products).Error
	return products, storeErr("list products", err)
}

func (r *productRepo) Search(ctx context.Context, companyID uint, query string) ([]model.Product, error) {
	pattern := "%" + escapeLike(query) + "%"
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND (name ILIKE ? OR category ILIKE ?)", companyID, pattern, pattern).
		Order("id ASC").
		Find(&products).Error
	return products, storeErr("search products", err)
}

func (r *productRepo) FindByCategory(ctx context.Context, companyID uint, category string) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND category = ?", companyID, category).
		Order("id ASC").
		Find(&products).Error
	return products, storeErr("list products by category", err)
}

func (r *productRepo) TotalsByCountry(ctx context.Context, companyID uint) ([]CountryTotal, error) {
	var totals []CountryTotal
	err := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Select("country, COALESCE(SUM(price * quantity), 0) AS total").
		Where("company_id = ?", companyID).
		Group("country").
		Order("country ASC").
		Scan(&totals).Error
	return totals, storeErr("total value", err)
}

func (r *productRepo) Catalog(ctx context.Context) ([]model.CatalogItem, error) {
	var items []model.CatalogItem
	err := r.db.WithContext(ctx).
		Table("products p").
		Select(`p.id, p.name, p.price, p.category, p.country, p.short_description, p.photo_path,
			COALESCE(AVG(f.rating), 0)::float8 AS average_rating, COUNT(f.id) AS feedback_count`).
		Joins("LEFT JOIN feedback f ON f.product_id = p.id").
		Group("p.id").
		Order("p.id ASC").
		Scan(&items).Error
	return items, storeErr("catalog", err)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
