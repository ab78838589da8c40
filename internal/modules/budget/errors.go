package budget

import "errors"

var (
	// ErrValidation covers malformed dates and missing required references.
	ErrValidation = errors.New("invalid budget request")
	// ErrNotFound covers budgets, cars, drivers and clients that are absent
	// or owned by another user.
	ErrNotFound = errors.New("budget not found")
	// ErrDriverUnavailable is a scheduling conflict: a requested driver
	// already has a trip whose window overlaps the requested one.
	ErrDriverUnavailable = errors.New("driver unavailable for the requested window")
	// ErrProvider wraps geocoding, routing and fuel-price failures.
	ErrProvider = errors.New("external provider failure")
)
