package models

import "math"

// Prediction is the model's win probability for a head-to-head matchup
type Prediction struct {
	PlayerA      string  `json:"player_a"`
	PlayerB      string  `json:"player_b"`
	Surface      Surface `json:"surface"`
	RatingA      float64 `json:"rating_a"`
	RatingB      float64 `json:"rating_b"`
	ProbabilityA float64 `json:"player_a_probability"`
}

// ProbabilityB is the complement of ProbabilityA
func (p Prediction) ProbabilityB() float64 {
	return 1 - p.ProbabilityA
}

// ProbabilityFor returns the win probability of the given player key
func (p Prediction) ProbabilityFor(player string) (float64, bool) {
	switch player {
	case p.PlayerA:
		return p.ProbabilityA, true
	case p.PlayerB:
		return p.ProbabilityB(), true
	}
	return 0, false
}

// Favorite returns the player with the higher probability; A on an exact tie
func (p Prediction) Favorite() string {
	if p.ProbabilityA >= 0.5 {
		return p.PlayerA
	}
	return p.PlayerB
}

// Confidence is the distance of the prediction from a coin flip
func (p Prediction) Confidence() float64 {
	return math.Abs(p.ProbabilityA - 0.5)
}
