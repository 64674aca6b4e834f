package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/martofrog/tennis-predictions/internal/datasource"
	"github.com/martofrog/tennis-predictions/internal/logger"
	"github.com/martofrog/tennis-predictions/internal/metrics"
	"github.com/martofrog/tennis-predictions/internal/models"
	"github.com/martofrog/tennis-predictions/internal/valuebet"
)

const notifiedTTL = 48 * time.Hour

// Sink receives value bets that were not delivered before
type Sink interface {
	Name() string
	Publish(ctx context.Context, bets []models.ValueBet, arbitrage []models.ArbitrageOpportunity) error
}

// ScanOptions selects what a value-bet scan returns
type ScanOptions struct {
	// Threshold is the minimum edge; <= 0 uses the detector default.
	Threshold float64
	// Tour restricts markets to one tour; empty means all.
	Tour models.Tour
	// Window keeps markets starting within this long from now; 0 means no upper bound.
	Window time.Duration
	// BestPerMatch keeps only the highest expected value bet of each match.
	BestPerMatch bool
}

// ScanResult is the ranked output of one value-bet scan
type ScanResult struct {
	ValueBets       []models.ValueBet             `json:"value_bets"`
	Arbitrage       []models.ArbitrageOpportunity `json:"arbitrage"`
	Markets         int                           `json:"markets"`
	Threshold       float64                       `json:"threshold"`
	Tour            models.Tour                   `json:"tour,omitempty"`
	Window          string                        `json:"window,omitempty"`
	BestPerMatch    bool                          `json:"best_per_match"`
	SnapshotVersion uint64                        `json:"snapshot_version"`
	GeneratedAt     time.Time                     `json:"generated_at"`
	Cached          bool                          `json:"cached"`
}

// clone copies the result so callers cannot alias the cached slices
func (r ScanResult) clone() *ScanResult {
	out := r
	out.ValueBets = append([]models.ValueBet{}, r.ValueBets...)
	out.Arbitrage = append([]models.ArbitrageOpportunity{}, r.Arbitrage...)
	return &out
}

// CacheStatus describes the scan cache
type CacheStatus struct {
	Entries    int       `json:"entries"`
	TTLSeconds float64   `json:"ttl_seconds"`
	Keys       []string  `json:"keys"`
	OldestAt   time.Time `json:"oldest_at,omitempty"`
}

// BettingService scans bookmaker odds for value bets against the published ratings
type BettingService struct {
	odds           datasource.OddsSource
	predictions    *PredictionService
	detector       *valuebet.Detector
	defaultSurface models.Surface
	ttl            time.Duration
	cache          *gocache.Cache
	notified       *gocache.Cache
	sinks          []Sink
	logger         *logger.BettingLogger
	audit          *logger.AuditLogger
	base           *logrus.Logger
	now            func() time.Time
}

// BettingConfig holds the scan settings
type BettingConfig struct {
	DefaultSurface models.Surface
	CacheTTL       time.Duration
}

// NewBettingService creates a new betting service
func NewBettingService(odds datasource.OddsSource, predictions *PredictionService, detector *valuebet.Detector, cfg BettingConfig, baseLogger *logrus.Logger, sinks ...Sink) *BettingService {
	if baseLogger == nil {
		baseLogger = logger.Discard()
	}
	if !cfg.DefaultSurface.Valid() {
		cfg.DefaultSurface = models.SurfaceHard
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	return &BettingService{
		odds:           odds,
		predictions:    predictions,
		detector:       detector,
		defaultSurface: cfg.DefaultSurface,
		ttl:            cfg.CacheTTL,
		cache:          gocache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		notified:       gocache.New(notifiedTTL, time.Hour),
		sinks:          sinks,
		logger:         logger.NewBettingLogger(baseLogger),
		audit:          logger.NewAuditLogger(baseLogger),
		base:           baseLogger,
		now:            time.Now,
	}
}

// AddSink registers another destination for new value bets
func (s *BettingService) AddSink(sink Sink) {
	s.sinks = append(s.sinks, sink)
}

type cachedScan struct {
	result ScanResult
	at     time.Time
}

func (s *BettingService) cacheKey(opts ScanOptions, version uint64) string {
	tour := string(opts.Tour)
	if tour == "" {
		tour = "all"
	}
	key := fmt.Sprintf("scan:%s:%.4f:v%d", tour, opts.Threshold, version)
	if opts.Window > 0 {
		key += ":w" + opts.Window.String()
	}
	if opts.BestPerMatch {
		key += ":best"
	}
	return key
}

// inWindow reports whether a market has not started yet and, when window is
// set, starts within window of now. Markets without a start time only pass
// when no window is set.
func inWindow(commence, now time.Time, window time.Duration) bool {
	if commence.IsZero() {
		return window <= 0
	}
	if commence.Before(now) {
		return false
	}
	return window <= 0 || !commence.After(now.Add(window))
}

// ScanValueBets returns ranked value bets and arbitrage for upcoming markets.
// Markets that already started are skipped. Results are cached per scan
// options and snapshot version. Only fresh scans are delivered to sinks, and
// each bet is delivered once.
func (s *BettingService) ScanValueBets(ctx context.Context, opts ScanOptions) (*ScanResult, error) {
	if s.odds == nil {
		return nil, fmt.Errorf("%w: no odds source configured", datasource.ErrSourceDisabled)
	}
	if opts.Threshold <= 0 {
		opts.Threshold = s.detector.Config().Threshold
	}

	snap := s.predictions.View()
	key := s.cacheKey(opts, snap.Version())
	if v, ok := s.cache.Get(key); ok {
		metrics.RecordCacheHit()
		hit := v.(cachedScan).result.clone()
		hit.Cached = true
		return hit, nil
	}
	metrics.RecordCacheMiss()

	start := s.now()
	markets, err := s.odds.FetchOdds(ctx)
	if err != nil {
		metrics.RecordOddsFetchError(s.odds.Name())
		return nil, fmt.Errorf("failed to fetch odds from %s: %w", s.odds.Name(), err)
	}

	result := ScanResult{
		ValueBets:       []models.ValueBet{},
		Arbitrage:       []models.ArbitrageOpportunity{},
		Threshold:       opts.Threshold,
		Tour:            opts.Tour,
		BestPerMatch:    opts.BestPerMatch,
		SnapshotVersion: snap.Version(),
	}
	if opts.Window > 0 {
		result.Window = opts.Window.String()
	}
	for _, market := range markets {
		if opts.Tour != "" && market.Tour != opts.Tour {
			continue
		}
		if !inWindow(market.CommenceTime, start, opts.Window) {
			continue
		}
		result.Markets++

		pred := s.predictions.PredictMarket(snap, market, s.defaultSurface)
		eval := s.detector.Evaluate(pred, market, opts.Threshold)
		if len(eval.Excluded) > 0 {
			s.logger.LogExcludedBookmakers(market.MatchRef, eval.Excluded)
		}
		result.ValueBets = append(result.ValueBets, eval.ValueBets...)
		if eval.Arbitrage != nil {
			result.Arbitrage = append(result.Arbitrage, *eval.Arbitrage)
		}
	}

	valuebet.Rank(result.ValueBets)
	if opts.BestPerMatch {
		result.ValueBets = valuebet.BestPerMatch(result.ValueBets)
	}
	valuebet.RankArbitrage(result.Arbitrage)
	result.GeneratedAt = s.now().UTC()

	for _, vb := range result.ValueBets {
		s.logger.LogValueBet(vb.MatchRef, vb.Selection, vb.BestBookmaker, vb.BestPrice, vb.ModelProbability, vb.Edge, vb.ExpectedValue)
		metrics.RecordValueBet(string(vb.Tour), string(vb.Recommendation), vb.Edge)
	}
	for _, arb := range result.Arbitrage {
		s.logger.LogArbitrage(arb.MatchRef, arb.ImpliedSum, arb.ProfitMargin)
	}
	metrics.RecordArbitrage(len(result.Arbitrage))
	s.logger.LogScanCompleted(snap.Version(), result.Markets, len(result.ValueBets), len(result.Arbitrage), opts.Threshold, s.now().Sub(start))

	s.cache.Set(key, cachedScan{result: result, at: result.GeneratedAt}, gocache.DefaultExpiration)
	s.deliver(ctx, result)

	return result.clone(), nil
}

// deliver sends bets and arbitrage not delivered before to every sink.
// Sink failures are logged and do not fail the scan.
func (s *BettingService) deliver(ctx context.Context, result ScanResult) {
	if len(s.sinks) == 0 {
		return
	}

	var bets []models.ValueBet
	for _, vb := range result.ValueBets {
		k := "bet:" + vb.MatchRef + "|" + vb.Selection + "|" + vb.BestBookmaker
		if s.notified.Add(k, struct{}{}, gocache.DefaultExpiration) == nil {
			bets = append(bets, vb)
		}
	}
	var arbs []models.ArbitrageOpportunity
	for _, arb := range result.Arbitrage {
		books := make([]string, 0, len(arb.Legs))
		for _, leg := range arb.Legs {
			books = append(books, leg.Bookmaker)
		}
		k := "arb:" + arb.MatchRef + "|" + strings.Join(books, ",")
		if s.notified.Add(k, struct{}{}, gocache.DefaultExpiration) == nil {
			arbs = append(arbs, arb)
		}
	}
	if len(bets) == 0 && len(arbs) == 0 {
		return
	}

	for _, sink := range s.sinks {
		err := sink.Publish(ctx, bets, arbs)
		metrics.RecordNotification(sink.Name(), err)
		if err != nil {
			s.base.WithError(err).WithFields(logrus.Fields{
				"component":  "betting",
				"sink":       sink.Name(),
				"value_bets": len(bets),
				"arbitrage":  len(arbs),
			}).Warn("Failed to deliver value bets")
		}
	}
}

// CacheStatus reports the cached scans
func (s *BettingService) CacheStatus() CacheStatus {
	items := s.cache.Items()
	status := CacheStatus{
		Entries:    len(items),
		TTLSeconds: s.ttl.Seconds(),
		Keys:       make([]string, 0, len(items)),
	}
	for k, item := range items {
		status.Keys = append(status.Keys, k)
		if scan, ok := item.Object.(cachedScan); ok {
			if status.OldestAt.IsZero() || scan.at.Before(status.OldestAt) {
				status.OldestAt = scan.at
			}
		}
	}
	sort.Strings(status.Keys)
	return status
}

// ClearCache drops every cached scan and returns how many were removed
func (s *BettingService) ClearCache(requestedBy string) int {
	n := s.cache.ItemCount()
	s.cache.Flush()
	s.audit.LogCacheCleared(n, requestedBy)
	return n
}
