package backtest

import (
	"math"
)

// minProbability bounds log loss for predictions that were certain and wrong
const minProbability = 1e-15

// Bucket is one calibration bin over favourite probabilities
type Bucket struct {
	Lower         float64 `json:"lower"`
	Upper         float64 `json:"upper"`
	Count         int     `json:"count"`
	MeanPredicted float64 `json:"mean_predicted"`
	ObservedRate  float64 `json:"observed_rate"`
}

// Metrics summarises scored predictions
type Metrics struct {
	Scored      int      `json:"scored"`
	Correct     int      `json:"correct"`
	Accuracy    float64  `json:"accuracy"`
	BrierScore  float64  `json:"brier_score"`
	LogLoss     float64  `json:"log_loss"`
	Calibration []Bucket `json:"calibration,omitempty"`
}

// accumulator collects winner probabilities and derives Metrics
type accumulator struct {
	scored  int
	correct int
	brier   float64
	logLoss float64

	buckets []bucketSum
}

type bucketSum struct {
	count   int
	sumPred float64
	favWins int
}

func newAccumulator(buckets int) *accumulator {
	return &accumulator{buckets: make([]bucketSum, buckets)}
}

// add records the pre-match probability the eventual winner was given
func (a *accumulator) add(pWinner float64) {
	a.scored++
	if pWinner > 0.5 {
		a.correct++
	}
	miss := 1 - pWinner
	a.brier += miss * miss
	a.logLoss -= math.Log(math.Max(pWinner, minProbability))

	if len(a.buckets) == 0 {
		return
	}
	fav, favWon := pWinner, true
	if pWinner < 0.5 {
		fav, favWon = 1-pWinner, false
	}
	i := int((fav - 0.5) / 0.5 * float64(len(a.buckets)))
	if i >= len(a.buckets) {
		i = len(a.buckets) - 1
	}
	b := &a.buckets[i]
	b.count++
	b.sumPred += fav
	if favWon {
		b.favWins++
	}
}

func (a *accumulator) metrics() Metrics {
	m := Metrics{Scored: a.scored, Correct: a.correct}
	if a.scored > 0 {
		n := float64(a.scored)
		m.Accuracy = float64(a.correct) / n
		m.BrierScore = a.brier / n
		m.LogLoss = a.logLoss / n
	}
	width := 0.5 / float64(max(len(a.buckets), 1))
	for i, b := range a.buckets {
		bucket := Bucket{
			Lower: 0.5 + float64(i)*width,
			Upper: 0.5 + float64(i+1)*width,
			Count: b.count,
		}
		if b.count > 0 {
			bucket.MeanPredicted = b.sumPred / float64(b.count)
			bucket.ObservedRate = float64(b.favWins) / float64(b.count)
		}
		m.Calibration = append(m.Calibration, bucket)
	}
	return m
}
