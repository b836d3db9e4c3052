package routing

import "errors"

var (
	// ErrStationNotFound is returned when a station id has no row.
	ErrStationNotFound = errors.New("station not found")

	// ErrOrderNotFound is returned when an order id has no row.
	ErrOrderNotFound = errors.New("order not found")

	// ErrAssignmentNotFound is returned when an assignment id has no row.
	ErrAssignmentNotFound = errors.New("assignment not found")

	// ErrStationFull is returned by slot reservation when the station has
	// no free capacity at the moment of the atomic check.
	ErrStationFull = errors.New("station at capacity")

	// ErrInvalidTransition is returned for backward or unknown status moves.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrNoActiveStations is returned by the tuner when the registry holds
	// no active stations at all.
	ErrNoActiveStations = errors.New("no active stations")

	// ErrInsufficientData is returned by the tuner when no station has any
	// completed assignment inside the trailing window.
	ErrInsufficientData = errors.New("insufficient completed assignment data")
)
