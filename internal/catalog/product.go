// Package catalog owns the product inventory: the persisted snapshot, the
// mutating operations that feed the history log, and search.
package catalog

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"Inventario/pkg/kit"
)

func init() {
	// Prices are stored and served as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

var (
	ErrInvalid           = kit.ErrValidation
	ErrNotFound          = errors.New("product not found")
	ErrInsufficientStock = errors.New("quantity cannot go below zero")
	ErrStorage           = errors.New("inventory storage failed")
)

type Product struct {
	ID       int             `json:"id" csv:"id"`
	Name     string          `json:"name" csv:"name"`
	Category string          `json:"category" csv:"category"`
	Quantity int             `json:"quantity" csv:"quantity"`
	Price    decimal.Decimal `json:"price" csv:"price"`
}

// Draft is product input as it arrives from a form or request body. Quantity
// and Price may be numbers or numeric strings.
type Draft struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Quantity any    `json:"quantity"`
	Price    any    `json:"price"`
}

// Normalize validates d and returns the product it describes, without an id.
func (d Draft) Normalize() (Product, error) {
	p := Product{
		Name:     strings.TrimSpace(d.Name),
		Category: strings.TrimSpace(d.Category),
	}
	if p.Name == "" {
		return Product{}, kit.NewValidationError("name", "name is required")
	}

	qty, err := toInt(d.Quantity)
	if err != nil {
		return Product{}, kit.NewValidationError("quantity", "quantity must be a whole number")
	}
	if qty < 0 {
		return Product{}, kit.NewValidationError("quantity", "quantity cannot be negative")
	}
	p.Quantity = qty

	price, err := toDecimal(d.Price)
	if err != nil {
		return Product{}, kit.NewValidationError("price", "price must be a number")
	}
	if price.IsNegative() {
		return Product{}, kit.NewValidationError("price", "price cannot be negative")
	}
	p.Price = price

	return p, nil
}

// toInt truncates toward zero, so "5.7" and 5.7 both give 5.
func toInt(v any) (int, error) {
	switch x := v.(type) {
	case nil:
		return 0, errors.New("missing value")
	case string:
		f, err := cast.ToFloat64E(strings.TrimSpace(x))
		if err != nil {
			return 0, err
		}
		return truncate(f)
	case float64:
		return truncate(x)
	case float32:
		return truncate(float64(x))
	default:
		return cast.ToIntE(v)
	}
}

func truncate(f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number: %v", f)
	}
	f = math.Trunc(f)
	if f >= math.MaxInt || f < math.MinInt {
		return 0, fmt.Errorf("out of range: %v", f)
	}
	return int(f), nil
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case nil:
		return decimal.Decimal{}, errors.New("missing value")
	case decimal.Decimal:
		return x, nil
	case string:
		return decimal.NewFromString(strings.TrimSpace(x))
	default:
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return decimal.Decimal{}, err
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Decimal{}, fmt.Errorf("not a finite number: %v", f)
		}
		return decimal.NewFromFloat(f), nil
	}
}
