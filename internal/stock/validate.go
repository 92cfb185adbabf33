package stock

import (
	"fmt"
	"strconv"
	"strings"
)

// Validate checks a (cost, selling price, quantity) triple. It is pure and
// applied uniformly to every write path.
func Validate(costPrice, sellingPrice float64, quantity int64) error {
	if quantity < 0 {
		return ErrInvalidQuantity
	}
	if sellingPrice < 0 {
		return ErrInvalidPrice
	}
	if sellingPrice < costPrice {
		return fmt.Errorf("%w: %.2f < %.2f", ErrPriceBelowCost, sellingPrice, costPrice)
	}
	return nil
}

// ParseQuantity parses operator input into a non-negative integer quantity.
func ParseQuantity(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ErrInvalidQuantity
	}
	qty, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || qty < 0 {
		return 0, ErrInvalidQuantity
	}
	return qty, nil
}

// ParseAndValidate parses raw operator input and validates the resulting
// triple against the product's cost price.
func ParseAndValidate(quantityRaw, priceRaw string, costPrice float64) (int64, float64, error) {
	qty, err := ParseQuantity(quantityRaw)
	if err != nil {
		return 0, 0, err
	}
	price, err := ParsePrice(priceRaw)
	if err != nil {
		return 0, 0, err
	}
	if err := Validate(costPrice, price, qty); err != nil {
		return 0, 0, err
	}
	return qty, price, nil
}

// ParsePrice parses operator input into a non-negative decimal price.
func ParsePrice(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ErrInvalidPrice
	}
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil || price < 0 {
		return 0, ErrInvalidPrice
	}
	return price, nil
}
