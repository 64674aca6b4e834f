package valuebet

import (
	"sort"

	"github.com/martofrog/tennis-predictions/internal/models"
)

// Rank orders bets by edge, then expected value, both descending.
// Remaining ties fall back to match reference and selection so the order is stable across runs.
func Rank(bets []models.ValueBet) {
	sort.SliceStable(bets, func(i, j int) bool {
		a, b := bets[i], bets[j]
		if a.Edge != b.Edge {
			return a.Edge > b.Edge
		}
		if a.ExpectedValue != b.ExpectedValue {
			return a.ExpectedValue > b.ExpectedValue
		}
		if a.MatchRef != b.MatchRef {
			return a.MatchRef < b.MatchRef
		}
		return a.Selection < b.Selection
	})
}

// RankArbitrage orders opportunities by profit margin, largest first
func RankArbitrage(opps []models.ArbitrageOpportunity) {
	sort.SliceStable(opps, func(i, j int) bool {
		if opps[i].ProfitMargin != opps[j].ProfitMargin {
			return opps[i].ProfitMargin > opps[j].ProfitMargin
		}
		return opps[i].MatchRef < opps[j].MatchRef
	})
}

// BestPerMatch keeps the highest expected value bet of every match.
// Kept bets stay in the order they had in bets.
func BestPerMatch(bets []models.ValueBet) []models.ValueBet {
	best := make(map[string]int, len(bets))
	for i, b := range bets {
		j, ok := best[b.MatchRef]
		if !ok || b.ExpectedValue > bets[j].ExpectedValue {
			best[b.MatchRef] = i
		}
	}
	out := make([]models.ValueBet, 0, len(best))
	for i, b := range bets {
		if best[b.MatchRef] == i {
			out = append(out, b)
		}
	}
	return out
}
