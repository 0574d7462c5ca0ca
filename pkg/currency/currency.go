// Package currency holds the supported country codes and the currency each one prices in.
package currency

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency maps a product country code to its ISO currency and display symbol.
type Currency struct {
	Country string `json:"country"`
	Code    string `json:"code"`
	Symbol  string `json:"symbol"`
}

var currencies = map[string]Currency{
	"RSA": {Country: "RSA", Code: "ZAR", Symbol: "R"},
	"US":  {Country: "US", Code: "USD", Symbol: "$"},
	"GB":  {Country: "GB", Code: "GBP", Symbol: "£"},
	"EU":  {Country: "EU", Code: "EUR", Symbol: "€"},
	"JP":  {Country: "JP", Code: "JPY", Symbol: "¥"},
	"CA":  {Country: "CA", Code: "CAD", Symbol: "C$"},
}

// Lookup returns the currency for a country code (case-insensitive).
// Unknown codes are reported, never defaulted.
func Lookup(country string) (Currency, bool) {
	c, ok := currencies[strings.ToUpper(strings.TrimSpace(country))]
	return c, ok
}

// Countries returns the supported country codes in sorted order.
func Countries() []string {
	codes := make([]string, 0, len(currencies))
	for code := range currencies {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Format renders an amount in the country's currency, e.g. "C$12.50".
// An unknown country falls back to the bare amount so a bad row never hides data in a report.
func Format(amount decimal.Decimal, country string) string {
	c, ok := Lookup(country)
	if !ok {
		return amount.StringFixed(2)
	}
	return c.Symbol + amount.StringFixed(2)
}

// Parse is the inverse of Format for a known country.
func Parse(s, country string) (decimal.Decimal, error) {
	if c, ok := Lookup(country); ok {
		s = strings.TrimPrefix(s, c.Symbol)
	}
	return decimal.NewFromString(strings.TrimSpace(s))
}
