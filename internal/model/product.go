package model

import (
	"github.com/shopspring/decimal"

	"go-inventory-ledger/pkg/currency"
)

type Product struct {
	BaseModel
	CompanyID        uint            `gorm:"not null;index" json:"company_id"`
	Company          *Company        `gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE" json:"-"`
	Name             string          `gorm:"type:varchar(50);not null" json:"name"`
	Price            decimal.Decimal `gorm:"type:numeric(10,2);not null;check:chk_products_price,price >= 0 AND price <= 1000000" json:"price"`
	Quantity         int             `gorm:"not null;default:0;check:chk_products_quantity,quantity >= 0 AND quantity <= 1000000" json:"quantity"`
	Category         string          `gorm:"type:varchar(30);not null;index" json:"category"`
	Country          string          `gorm:"type:varchar(3);not null;default:'RSA'" json:"country"`
	ShortDescription string          `gorm:"type:varchar(255)" json:"short_description"`
	PhotoPath        string          `gorm:"type:varchar(255)" json:"photo_path"`
}

// Value is price x quantity in the product's own currency.
func (p *Product) Value() decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(int64(p.Quantity))).Round(2)
}

// ProductInput is the raw, unvalidated payload of a create or edit. An edit replaces
// every field, so price, quantity and country are pointers: nil means the field was absent.
type ProductInput struct {
	Name             string           `json:"name"`
	Price            *decimal.Decimal `json:"price"`
	Quantity         *float64         `json:"quantity"`
	Category         string           `json:"category"`
	Country          *string          `json:"country"`
	ShortDescription string           `json:"short_description"`
	PhotoPath        string           `json:"photo_path"`
}

// CatalogItem is the public view of a product: no stock level, plus its rating summary.
type CatalogItem struct {
	ID               uint            `json:"id"`
	Name             string          `json:"name"`
	Price            decimal.Decimal `json:"price"`
	Category         string          `json:"category"`
	Country          string          `json:"country"`
	ShortDescription string          `json:"short_description"`
	PhotoPath        string          `json:"photo_path"`
	AverageRating    float64         `json:"average_rating"`
	FeedbackCount    int64           `json:"feedback_count"`
}

// CountryValue is the stock valuation of one currency.
type CountryValue struct {
	Country   string          `json:"country"`
	Code      string          `json:"currency"`
	Total     decimal.Decimal `json:"total"`
	Formatted string          `json:"formatted"`
}

// TotalValue sums price x quantity over a tenant's products. Total adds raw amounts
// across currencies; ByCountry keeps them apart for display.
type TotalValue struct {
	Total     decimal.Decimal `json:"total"`
	ByCountry []CountryValue  `json:"by_country"`
}

// NewCountryValue rounds total to cents and attaches the currency code and symbol.
func NewCountryValue(country string, total decimal.Decimal) CountryValue {
	total = total.Round(2)
	cv := CountryValue{Country: country, Total: total, Formatted: currency.Format(total, country)}
	if c, ok := currency.Lookup(country); ok {
		cv.Code = c.Code
	}
	return cv
}
