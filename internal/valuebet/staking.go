package valuebet

import "github.com/martofrog/tennis-predictions/internal/models"

// ExpectedValue is the profit per unit staked at price when the selection wins with probability p
func ExpectedValue(probability, price float64) float64 {
	return probability*(price-1.0) - (1.0 - probability)
}

// KellyStake returns the fraction of bankroll to stake under fractional Kelly.
// Non-positive edges stake nothing; maxStake of 0 leaves the stake uncapped.
func KellyStake(probability, price, fraction, maxStake float64) float64 {
	if probability <= 0 || price <= 1 || fraction <= 0 {
		return 0
	}
	b := price - 1.0
	q := 1.0 - probability
	kelly := (b*probability - q) / b
	if kelly <= 0 {
		return 0
	}
	stake := kelly * fraction
	if maxStake > 0 && stake > maxStake {
		return maxStake
	}
	return stake
}

// Recommend grades a bet by expected value
func (c Config) Recommend(ev float64) models.Recommendation {
	switch {
	case ev >= c.StrongBetEV:
		return models.RecommendationStrongBet
	case ev >= c.BetEV:
		return models.RecommendationBet
	}
	return models.RecommendationPass
}
