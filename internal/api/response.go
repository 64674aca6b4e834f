package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/martofrog/tennis-predictions/internal/datasource"
	"github.com/martofrog/tennis-predictions/internal/models"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrMissingPlayer),
		errors.Is(err, models.ErrUnknownSurface),
		errors.Is(err, models.ErrUnknownTour),
		errors.Is(err, models.ErrUnknownSortOrder):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrTrainingInProgress):
		return http.StatusConflict
	case errors.Is(err, datasource.ErrSourceDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, datasource.ErrRateLimitExceeded),
		errors.Is(err, datasource.ErrCircuitOpen),
		errors.Is(err, datasource.ErrNetworkError),
		errors.Is(err, datasource.ErrServerError),
		errors.Is(err, datasource.ErrAuthenticationFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
