package odds

import (
	"fmt"
	"math"
	"strings"

	"github.com/martofrog/tennis-predictions/internal/models"
	"github.com/shopspring/decimal"
)

// AmericanToDecimal converts American odds (+150, -200) to a decimal price
func AmericanToDecimal(american float64) (float64, error) {
	switch {
	case american >= 100:
		return 1 + american/100, nil
	case american <= -100:
		return 1 + 100/math.Abs(american), nil
	}
	return 0, fmt.Errorf("invalid american odds: %v", american)
}

// DecimalToAmerican converts a decimal price to American odds
func DecimalToAmerican(price float64) (float64, error) {
	if err := ValidatePrice(price); err != nil {
		return 0, err
	}
	if price >= 2.0 {
		return (price - 1) * 100, nil
	}
	return -100 / (price - 1), nil
}

// ProbabilityToDecimal returns the fair decimal price of a probability
func ProbabilityToDecimal(p float64) (float64, error) {
	if p <= 0 || p >= 1 {
		return 0, fmt.Errorf("probability must be in (0,1): %v", p)
	}
	return 1 / p, nil
}

// ParsePrice parses a vendor decimal price string exactly and validates it.
// Prices are rounded to four places, the precision bookmakers quote at.
func ParsePrice(raw string) (float64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("failed to parse price %q: %w", raw, err)
	}
	if d.LessThanOrEqual(decimal.NewFromInt(1)) {
		return 0, fmt.Errorf("%w: %s", models.ErrInvalidPrice, d.String())
	}
	price, _ := d.Round(4).Float64()
	return price, nil
}

// PriceFromDecimal validates and converts an exact price
func PriceFromDecimal(d decimal.Decimal) (float64, error) {
	price, _ := d.Round(4).Float64()
	if err := ValidatePrice(price); err != nil {
		return 0, err
	}
	return price, nil
}

// PriceFromAmerican converts an exact American quote to a validated decimal price
func PriceFromAmerican(d decimal.Decimal) (float64, error) {
	american, _ := d.Float64()
	price, err := AmericanToDecimal(american)
	if err != nil {
		return 0, err
	}
	return PriceFromDecimal(decimal.NewFromFloat(price))
}
