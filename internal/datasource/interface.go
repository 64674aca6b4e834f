package datasource

import (
	"context"
	"errors"

	"github.com/martofrog/tennis-predictions/internal/models"
)

// MatchSource yields completed matches for training
type MatchSource interface {
	// Matches opens a fresh stream; every call starts from the first match
	Matches(ctx context.Context) (MatchStream, error)

	// Name returns the name of the data source
	Name() string
}

// MatchStream is a MatchIterator holding resources until closed
type MatchStream interface {
	models.MatchIterator
	Close() error
}

// OddsSource fetches head-to-head markets for upcoming matches
type OddsSource interface {
	// FetchOdds returns one MarketOdds per upcoming match. A match without
	// quotes is returned with an empty Quotes slice.
	FetchOdds(ctx context.Context) ([]models.MarketOdds, error)

	// Name returns the name of the data source
	Name() string
}

// DataSourceError represents errors from data source operations
type DataSourceError struct {
	Source  string // Data source name
	Code    string // Error code (e.g., "rate_limit_exceeded")
	Message string // Error message
	Err     error  // Underlying error
}

func (e DataSourceError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

func (e DataSourceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeRateLimitExceeded    = "rate_limit_exceeded"
	ErrCodeAuthenticationFailed = "authentication_failed"
	ErrCodeNotFound             = "not_found"
	ErrCodeInvalidData          = "invalid_data"
	ErrCodeNetworkError         = "network_error"
	ErrCodeServerError          = "server_error"
	ErrCodeUnknown              = "unknown"
)

var (
	ErrRateLimitExceeded    = errors.New("rate limit exceeded")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrNotFound             = errors.New("data not found")
	ErrInvalidData          = errors.New("invalid data format")
	ErrNetworkError         = errors.New("network error")
	ErrServerError          = errors.New("server error")
	ErrCircuitOpen          = errors.New("circuit breaker open")
	ErrSourceDisabled       = errors.New("data source disabled")
)

// NewDataSourceError creates a new data source error
func NewDataSourceError(source, code, message string, err error) DataSourceError {
	return DataSourceError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
