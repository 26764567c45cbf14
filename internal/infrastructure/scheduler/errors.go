package scheduler

import "errors"

var (
	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// ErrSyncAlreadyInProgress is returned when a scheduled run is still in flight
	ErrSyncAlreadyInProgress = errors.New("catalog sync already in progress")
)
