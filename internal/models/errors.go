package models

import "errors"

// Custom errors
var (
	ErrNotFound           = errors.New("record not found")
	ErrUnknownSurface     = errors.New("unknown surface")
	ErrUnknownTour        = errors.New("unknown tour")
	ErrUnknownSortOrder   = errors.New("unknown sort order")
	ErrNonPositiveMargin  = errors.New("winner sets must exceed loser sets")
	ErrMissingPlayer      = errors.New("missing player identity")
	ErrInvalidRating      = errors.New("rating is not a finite number")
	ErrInvalidPrice       = errors.New("decimal price must be greater than 1.0")
	ErrIncompleteMarket   = errors.New("market needs at least two selections")
	ErrTrainingInProgress = errors.New("training pass already in progress")
	ErrTrainingFailed     = errors.New("training pass failed")
)
