// Package valuebet finds positive-expected-value selections and arbitrage in bookmaker markets.
package valuebet

import (
	"sort"

	"github.com/google/uuid"
	"github.com/martofrog/tennis-predictions/internal/models"
	"github.com/martofrog/tennis-predictions/internal/odds"
)

// Defaults
const (
	DefaultThreshold     = 0.05
	DefaultKellyFraction = 0.25
	DefaultStrongBetEV   = 0.10
	DefaultBetEV         = 0.05

	// edgeTolerance absorbs float error when an edge lands exactly on the threshold.
	edgeTolerance = 1e-12
)

// Config controls value-bet materialisation and staking
type Config struct {
	Threshold     float64
	KellyFraction float64
	MaxStake      float64
	StrongBetEV   float64
	BetEV         float64
}

// DefaultConfig returns the documented defaults
func DefaultConfig() Config {
	return Config{
		Threshold:     DefaultThreshold,
		KellyFraction: DefaultKellyFraction,
		StrongBetEV:   DefaultStrongBetEV,
		BetEV:         DefaultBetEV,
	}
}

// Evaluation is the full result for one market
type Evaluation struct {
	ValueBets []models.ValueBet
	Arbitrage *models.ArbitrageOpportunity
	// Excluded lists bookmakers dropped for invalid or one-sided quotes.
	Excluded []string
}

// Detector compares model probabilities with bookmaker prices
type Detector struct {
	config Config
	newID  func() uuid.UUID
}

// NewDetector creates a detector; zero-valued fields fall back to defaults
func NewDetector(cfg Config) *Detector {
	def := DefaultConfig()
	if cfg.Threshold <= 0 {
		cfg.Threshold = def.Threshold
	}
	if cfg.KellyFraction <= 0 {
		cfg.KellyFraction = def.KellyFraction
	}
	if cfg.StrongBetEV <= 0 {
		cfg.StrongBetEV = def.StrongBetEV
	}
	if cfg.BetEV <= 0 {
		cfg.BetEV = def.BetEV
	}
	return &Detector{config: cfg, newID: uuid.New}
}

// Config returns the detector configuration
func (d *Detector) Config() Config {
	return d.config
}

// FindValueBets returns the value bets in market for the predicted matchup.
// A non-positive threshold uses the configured one. The result is never nil.
func (d *Detector) FindValueBets(pred models.Prediction, market models.MarketOdds, threshold float64) []models.ValueBet {
	return d.Evaluate(pred, market, threshold).ValueBets
}

// bookPrices is one bookmaker's valid two-way market
type bookPrices struct {
	bookmaker string
	price     [2]float64
	noVig     [2]float64
}

// Evaluate runs value-bet and arbitrage detection over one market
func (d *Detector) Evaluate(pred models.Prediction, market models.MarketOdds, threshold float64) Evaluation {
	if threshold <= 0 {
		threshold = d.config.Threshold
	}
	selections := [2]string{pred.PlayerA, pred.PlayerB}
	probs := [2]float64{pred.ProbabilityA, pred.ProbabilityB()}

	eval := Evaluation{ValueBets: []models.ValueBet{}}
	books, excluded := collectBooks(market.Quotes, selections)
	eval.Excluded = excluded

	for side := 0; side < 2; side++ {
		best := bestBook(books, side)
		if best == nil {
			continue
		}
		p := probs[side]
		price := best.price[side]
		edge := p - best.noVig[side]
		ev := ExpectedValue(p, price)
		if edge+edgeTolerance < threshold || ev <= 0 {
			continue
		}
		eval.ValueBets = append(eval.ValueBets, models.ValueBet{
			ID:                 d.newID(),
			MatchRef:           market.MatchRef,
			Selection:          selections[side],
			Opponent:           selections[1-side],
			ModelProbability:   p,
			ImpliedProbability: best.noVig[side],
			Edge:               edge,
			ExpectedValue:      ev,
			BestBookmaker:      best.bookmaker,
			BestPrice:          price,
			KellyStake:         KellyStake(p, price, d.config.KellyFraction, d.config.MaxStake),
			Recommendation:     d.config.Recommend(ev),
			CommenceTime:       market.CommenceTime,
			Tour:               market.Tour,
		})
	}

	eval.Arbitrage = DetectArbitrage(market.MatchRef, market.Quotes, selections)
	return eval
}

// collectBooks groups quotes per bookmaker and de-vigs every complete market.
// Bookmakers are visited in sorted order so ties resolve deterministically.
func collectBooks(quotes []models.OddsQuote, selections [2]string) ([]bookPrices, []string) {
	byBook := make(map[string]*[2]float64)
	invalid := make(map[string]bool)
	var names []string

	for _, q := range quotes {
		side := sideOf(q.Selection, selections)
		if side < 0 {
			continue
		}
		prices, ok := byBook[q.Bookmaker]
		if !ok {
			prices = &[2]float64{}
			byBook[q.Bookmaker] = prices
			names = append(names, q.Bookmaker)
		}
		if odds.ValidatePrice(q.Price) != nil {
			invalid[q.Bookmaker] = true
			continue
		}
		if q.Price > prices[side] {
			prices[side] = q.Price
		}
	}
	sort.Strings(names)

	var books []bookPrices
	var excluded []string
	for _, name := range names {
		prices := byBook[name]
		if invalid[name] || prices[0] == 0 || prices[1] == 0 {
			excluded = append(excluded, name)
			continue
		}
		a, b, err := odds.Normalize(prices[0], prices[1])
		if err != nil {
			excluded = append(excluded, name)
			continue
		}
		books = append(books, bookPrices{bookmaker: name, price: *prices, noVig: [2]float64{a, b}})
	}
	return books, excluded
}

func bestBook(books []bookPrices, side int) *bookPrices {
	var best *bookPrices
	for i := range books {
		if best == nil || books[i].price[side] > best.price[side] {
			best = &books[i]
		}
	}
	return best
}

func sideOf(selection string, selections [2]string) int {
	switch selection {
	case selections[0]:
		return 0
	case selections[1]:
		return 1
	}
	return -1
}

// DetectArbitrage reports an opportunity when the best valid price on each side
// implies a total probability strictly below 1. It ignores any model.
func DetectArbitrage(matchRef string, quotes []models.OddsQuote, selections [2]string) *models.ArbitrageOpportunity {
	var legs [2]*models.ArbitrageLeg
	for _, q := range quotes {
		side := sideOf(q.Selection, selections)
		if side < 0 || odds.ValidatePrice(q.Price) != nil {
			continue
		}
		leg := legs[side]
		if leg == nil || q.Price > leg.Price || (q.Price == leg.Price && q.Bookmaker < leg.Bookmaker) {
			legs[side] = &models.ArbitrageLeg{Selection: q.Selection, Bookmaker: q.Bookmaker, Price: q.Price}
		}
	}
	if legs[0] == nil || legs[1] == nil {
		return nil
	}

	sum := 1/legs[0].Price + 1/legs[1].Price
	if sum >= 1.0 {
		return nil
	}
	return &models.ArbitrageOpportunity{
		MatchRef:     matchRef,
		Legs:         []models.ArbitrageLeg{*legs[0], *legs[1]},
		ImpliedSum:   sum,
		ProfitMargin: 1 - sum,
	}
}
