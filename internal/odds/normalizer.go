// Package odds converts bookmaker prices into probabilities.
package odds

import (
	"fmt"
	"math"

	"github.com/martofrog/tennis-predictions/internal/models"
)

// NoVig holds the de-vigged probabilities for a market
type NoVig struct {
	Raw         []float64 `json:"raw"`
	Probability []float64 `json:"probability"`
	Overround   float64   `json:"overround"`
}

// ValidatePrice checks that a decimal price implies a probability
func ValidatePrice(price float64) error {
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 1.0 {
		return fmt.Errorf("%w: %v", models.ErrInvalidPrice, price)
	}
	return nil
}

// ImpliedProbability returns 1/price for a valid decimal price
func ImpliedProbability(price float64) (float64, error) {
	if err := ValidatePrice(price); err != nil {
		return 0, err
	}
	return 1.0 / price, nil
}

// NormalizeMarket removes the bookmaker margin proportionally across all outcomes.
// The returned probabilities sum to 1 and each lies strictly inside (0, 1).
func NormalizeMarket(prices []float64) (NoVig, error) {
	if len(prices) < 2 {
		return NoVig{}, models.ErrIncompleteMarket
	}

	raw := make([]float64, len(prices))
	total := 0.0
	for i, price := range prices {
		p, err := ImpliedProbability(price)
		if err != nil {
			return NoVig{}, err
		}
		raw[i] = p
		total += p
	}

	probs := make([]float64, len(raw))
	for i, p := range raw {
		probs[i] = clampOpen(p / total)
	}

	return NoVig{Raw: raw, Probability: probs, Overround: total - 1}, nil
}

// Normalize de-vigs a two-way market and returns the no-vig probability of each side.
// Both sides stay strictly inside (0, 1) even when one price dwarfs the other.
func Normalize(priceA, priceB float64) (float64, float64, error) {
	nv, err := NormalizeMarket([]float64{priceA, priceB})
	if err != nil {
		return 0, 0, err
	}
	pA := nv.Probability[0]
	return pA, clampOpen(1 - pA), nil
}

// clampOpen keeps p inside the open interval (0, 1)
func clampOpen(p float64) float64 {
	if p <= 0 {
		return math.SmallestNonzeroFloat64
	}
	if p >= 1 {
		return math.Nextafter(1, 0)
	}
	return p
}
