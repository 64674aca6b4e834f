package models

import (
	"time"

	"github.com/google/uuid"
)

// Recommendation grades a value bet by expected value
type Recommendation string

const (
	RecommendationStrongBet Recommendation = "strong_bet"
	RecommendationBet       Recommendation = "bet"
	RecommendationPass      Recommendation = "pass"
)

// ValueBet is a selection whose model probability beats the market
type ValueBet struct {
	ID                 uuid.UUID      `json:"id"`
	MatchRef           string         `json:"match_ref"`
	Selection          string         `json:"selection"`
	Opponent           string         `json:"opponent"`
	ModelProbability   float64        `json:"model_probability"`
	ImpliedProbability float64        `json:"implied_probability"`
	Edge               float64        `json:"edge"`
	ExpectedValue      float64        `json:"expected_value"`
	BestBookmaker      string         `json:"best_bookmaker"`
	BestPrice          float64        `json:"best_price"`
	KellyStake         float64        `json:"kelly_stake"`
	Recommendation     Recommendation `json:"recommendation"`
	CommenceTime       time.Time      `json:"commence_time,omitempty"`
	Tour               Tour           `json:"tour,omitempty"`
}

// ArbitrageLeg is the best price for one side of an arbitrage
type ArbitrageLeg struct {
	Selection string  `json:"selection"`
	Bookmaker string  `json:"bookmaker"`
	Price     float64 `json:"price"`
}

// ArbitrageOpportunity is a market whose best prices imply less than 100%
type ArbitrageOpportunity struct {
	MatchRef     string         `json:"match_ref"`
	Legs         []ArbitrageLeg `json:"legs"`
	ImpliedSum   float64        `json:"implied_sum"`
	ProfitMargin float64        `json:"profit_margin"`
}
