package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/martofrog/tennis-predictions/internal/models"
	"github.com/martofrog/tennis-predictions/internal/odds"
)

const oddsAPISourceName = "the_odds_api"

// Price formats accepted by The Odds API
const (
	OddsFormatDecimal  = "decimal"
	OddsFormatAmerican = "american"
)

// OddsAPIConfig configures the Odds API v4 client
type OddsAPIConfig struct {
	BaseURL   string
	APIKey    string
	Regions   string
	SportKeys map[models.Tour]string
	// OddsFormat is the wire format requested; prices are always stored as decimal.
	OddsFormat string
}

// OddsAPISource fetches head-to-head tennis odds from The Odds API
type OddsAPISource struct {
	client    *RateLimitedHTTPClient
	cfg       OddsAPIConfig
	logger    *logrus.Entry
	remaining atomic.Int64
}

// NewOddsAPISource creates a source using client for every request
func NewOddsAPISource(client *RateLimitedHTTPClient, cfg OddsAPIConfig, logger *logrus.Logger) *OddsAPISource {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	if cfg.OddsFormat == "" {
		cfg.OddsFormat = OddsFormatDecimal
	}
	s := &OddsAPISource{
		client: client,
		cfg:    cfg,
		logger: logger.WithField("component", oddsAPISourceName),
	}
	s.remaining.Store(-1)
	return s
}

func (s *OddsAPISource) Name() string {
	return oddsAPISourceName
}

// RemainingRequests returns the quota reported by the last response, or -1
func (s *OddsAPISource) RemainingRequests() int64 {
	return s.remaining.Load()
}

type apiEvent struct {
	ID           string         `json:"id"`
	SportKey     string         `json:"sport_key"`
	SportTitle   string         `json:"sport_title"`
	CommenceTime time.Time      `json:"commence_time"`
	HomeTeam     string         `json:"home_team"`
	AwayTeam     string         `json:"away_team"`
	Bookmakers   []apiBookmaker `json:"bookmakers"`
}

type apiBookmaker struct {
	Key     string      `json:"key"`
	Title   string      `json:"title"`
	Markets []apiMarket `json:"markets"`
}

type apiMarket struct {
	Key      string       `json:"key"`
	Outcomes []apiOutcome `json:"outcomes"`
}

type apiOutcome struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// FetchOdds queries every configured tour. A tour that fails is logged and
// skipped; the call fails only when no tour succeeds.
func (s *OddsAPISource) FetchOdds(ctx context.Context) ([]models.MarketOdds, error) {
	var (
		markets  []models.MarketOdds
		failures []error
	)
	for _, tour := range []models.Tour{models.TourATP, models.TourWTA} {
		sport, ok := s.cfg.SportKeys[tour]
		if !ok || sport == "" {
			continue
		}
		events, err := s.fetchSport(ctx, sport)
		if err != nil {
			s.logger.WithError(err).WithField("sport", sport).Warn("Failed to fetch odds")
			failures = append(failures, err)
			continue
		}
		for _, ev := range events {
			markets = append(markets, s.toMarket(tour, ev))
		}
	}

	if len(failures) > 0 && len(markets) == 0 {
		return nil, failures[0]
	}
	return markets, nil
}

func (s *OddsAPISource) fetchSport(ctx context.Context, sport string) ([]apiEvent, error) {
	q := url.Values{}
	q.Set("apiKey", s.cfg.APIKey)
	q.Set("regions", s.cfg.Regions)
	q.Set("markets", "h2h")
	q.Set("oddsFormat", s.cfg.OddsFormat)
	q.Set("dateFormat", "iso")
	endpoint := fmt.Sprintf("%s/sports/%s/odds?%s", strings.TrimRight(s.cfg.BaseURL, "/"), url.PathEscape(sport), q.Encode())

	resp, err := s.client.Get(ctx, endpoint)
	if err != nil {
		return nil, NewDataSourceError(oddsAPISourceName, ErrCodeNetworkError, "request failed", err)
	}
	defer resp.Body.Close()

	if remaining := resp.Header.Get("x-requests-remaining"); remaining != "" {
		var n int64
		if _, err := fmt.Sscan(remaining, &n); err == nil {
			s.remaining.Store(n)
		}
	}

	if err := statusError(resp.StatusCode); err != nil {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, NewDataSourceError(oddsAPISourceName, codeFor(err), strings.TrimSpace(string(body)), err)
	}

	var events []apiEvent
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, NewDataSourceError(oddsAPISourceName, ErrCodeInvalidData, "decoding odds", err)
	}
	return events, nil
}

// toMarket keeps only h2h outcomes naming one of the two players
func (s *OddsAPISource) toMarket(tour models.Tour, ev apiEvent) models.MarketOdds {
	playerA := models.NormalizeKey(ev.HomeTeam)
	playerB := models.NormalizeKey(ev.AwayTeam)
	m := models.MarketOdds{
		MatchRef:     ev.ID,
		Tour:         tour,
		Tournament:   ev.SportTitle,
		PlayerA:      playerA,
		PlayerB:      playerB,
		CommenceTime: ev.CommenceTime.UTC(),
		Quotes:       []models.OddsQuote{},
	}
	for _, bm := range ev.Bookmakers {
		for _, mk := range bm.Markets {
			if mk.Key != "h2h" {
				continue
			}
			for _, o := range mk.Outcomes {
				sel := models.NormalizeKey(o.Name)
				if sel != playerA && sel != playerB {
					continue
				}
				price, err := s.price(o.Price)
				if err != nil {
					s.logger.WithFields(logrus.Fields{
						"match_ref": ev.ID,
						"bookmaker": bm.Key,
						"price":     o.Price.String(),
					}).Debug("Dropping invalid price")
					continue
				}
				m.Quotes = append(m.Quotes, models.OddsQuote{Bookmaker: bm.Key, Selection: sel, Price: price})
			}
		}
	}
	return m
}

func (s *OddsAPISource) price(raw decimal.Decimal) (float64, error) {
	if s.cfg.OddsFormat == OddsFormatAmerican {
		return odds.PriceFromAmerican(raw)
	}
	return odds.PriceFromDecimal(raw)
}

func statusError(code int) error {
	switch {
	case code < 300:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ErrAuthenticationFailed
	case code == http.StatusTooManyRequests:
		return ErrRateLimitExceeded
	case code == http.StatusNotFound:
		return ErrNotFound
	case code >= 500:
		return ErrServerError
	default:
		return fmt.Errorf("unexpected status %d", code)
	}
}

func codeFor(err error) string {
	switch err {
	case ErrAuthenticationFailed:
		return ErrCodeAuthenticationFailed
	case ErrRateLimitExceeded:
		return ErrCodeRateLimitExceeded
	case ErrNotFound:
		return ErrCodeNotFound
	case ErrServerError:
		return ErrCodeServerError
	default:
		return ErrCodeUnknown
	}
}
