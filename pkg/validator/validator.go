package validator

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"go-inventory-ledger/pkg/currency"
)

const (
	MaxNameLength     = 50
	MaxCategoryLength = 30
	MaxCommentLength  = 500
	MaxQuantity       = 1_000_000
	MinRating         = 1
	MaxRating         = 5
)

var maxPrice = decimal.NewFromInt(1_000_000)

// ValidationError describes one violated field constraint. It is always the caller's fault.
type ValidationError struct {
	Field   string `json:"field"`
	Value   any    `json:"value,omitempty"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field string, value any, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: fmt.Sprintf(format, args...)}
}

// ErrorResponse is one failed struct field reported by ValidateStruct.
type ErrorResponse struct {
	FailedField string
	Tag         string
	Value       string
}

var validate = validator.New()

func init() {
	// Report fields by their JSON names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Country codes share the enumeration used by ValidateCountry.
	validate.RegisterValidation("country", func(fl validator.FieldLevel) bool {
		_, ok := currency.Lookup(fl.Field().String())
		return ok
	})
}

// ValidateStruct runs the `validate` tags of a request struct.
func ValidateStruct(data interface{}) []*ErrorResponse {
	var errors []*ErrorResponse
	err := validate.Struct(data)
	if err != nil {
		for _, err := range err.(validator.ValidationErrors) {
			var element ErrorResponse
			element.FailedField = err.Field()
			element.Tag = err.Tag()
			element.Value = err.Param()
			errors = append(errors, &element)
		}
	}
	return errors
}

// FirstError converts the first ValidateStruct failure into a ValidationError, or nil.
func FirstError(data interface{}) error {
	errs := ValidateStruct(data)
	if len(errs) == 0 {
		return nil
	}
	e := errs[0]
	if e.Tag == "required" {
		return invalid(e.FailedField, nil, "is required")
	}
	if e.Value != "" {
		return invalid(e.FailedField, nil, "failed on '%s=%s'", e.Tag, e.Value)
	}
	return invalid(e.FailedField, nil, "failed on '%s'", e.Tag)
}

// ValidateID accepts a store-generated product/feedback id.
func ValidateID(id uint) (uint, error) {
	if id == 0 {
		return 0, invalid("id", id, "must be a positive integer")
	}
	return id, nil
}

// ValidateName trims the name; it must be non-empty and at most 50 characters.
func ValidateName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || utf8.RuneCountInString(trimmed) > MaxNameLength {
		return "", invalid("name", name, "must be a non-empty string (max %d characters)", MaxNameLength)
	}
	return trimmed, nil
}

// ValidatePrice bounds the price to [0, 1,000,000] and rounds it to cents.
func ValidatePrice(price decimal.Decimal) (decimal.Decimal, error) {
	if price.IsNegative() || price.GreaterThan(maxPrice) {
		return decimal.Zero, invalid("price", price.String(), "must be a number between 0 and 1,000,000")
	}
	return price.Round(2), nil
}

// ValidateQuantity accepts a whole number of units in [0, 1,000,000].
func ValidateQuantity(quantity float64) (int, error) {
	if !isWhole(quantity) || quantity < 0 || quantity > MaxQuantity {
		return 0, invalid("quantity", quantity, "must be an integer between 0 and 1,000,000")
	}
	return int(quantity), nil
}

// ValidateCategory trims and lower-cases the category; max 30 characters.
func ValidateCategory(category string) (string, error) {
	trimmed := strings.TrimSpace(category)
	if trimmed == "" || utf8.RuneCountInString(trimmed) > MaxCategoryLength {
		return "", invalid("category", category, "must be a non-empty string (max %d characters)", MaxCategoryLength)
	}
	return strings.ToLower(trimmed), nil
}

// ValidateCountry upper-cases the code and rejects anything outside the supported set.
func ValidateCountry(country string) (string, error) {
	c, ok := currency.Lookup(country)
	if !ok {
		return "", invalid("country", country, "must be one of %s", strings.Join(currency.Countries(), ", "))
	}
	return c.Country, nil
}

// ValidateQuantityChange accepts a signed whole-number delta with magnitude up to 1,000,000.
func ValidateQuantityChange(delta float64) (int, error) {
	if !isWhole(delta) || math.Abs(delta) > MaxQuantity {
		return 0, invalid("quantity_change", delta, "must be an integer between -1,000,000 and 1,000,000")
	}
	return int(delta), nil
}

// ValidateRating accepts a 1-5 star rating.
func ValidateRating(rating int) (int, error) {
	if rating < MinRating || rating > MaxRating {
		return 0, invalid("rating", rating, "must be between %d and %d", MinRating, MaxRating)
	}
	return rating, nil
}

// ValidateComment trims an optional comment; max 500 characters.
func ValidateComment(comment string) (string, error) {
	trimmed := strings.TrimSpace(comment)
	if utf8.RuneCountInString(trimmed) > MaxCommentLength {
		return "", invalid("comment", nil, "must be at most %d characters", MaxCommentLength)
	}
	return trimmed, nil
}

// ValidateText trims an optional free-text field and bounds its length.
func ValidateText(field, value string, max int) (string, error) {
	trimmed := strings.TrimSpace(value)
	if utf8.RuneCountInString(trimmed) > max {
		return "", invalid(field, nil, "must be at most %d characters", max)
	}
	return trimmed, nil
}

func isWhole(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f == math.Trunc(f)
}
