package errors

import "net/http"

var (
	ErrInvalidCoordinates = New(
		"INVALID_COORDINATES",
		"Invalid coordinates provided",
		http.StatusBadRequest,
	)

	ErrInvalidRequest = New(
		"INVALID_REQUEST",
		"Invalid request parameters",
		http.StatusBadRequest,
	)

	ErrInternalServer = New(
		"INTERNAL_SERVER_ERROR",
		"Internal server error",
		http.StatusInternalServerError,
	)

	ErrCacheError = New(
		"CACHE_ERROR",
		"Cache operation failed",
		http.StatusInternalServerError,
	)

	ErrDatabaseError = New(
		"DATABASE_ERROR",
		"Database operation failed",
		http.StatusInternalServerError,
	)
)

// Trip selection
var (
	ErrInvalidTransition = New(
		"INVALID_TRANSITION",
		"Action is not available in the current step",
		http.StatusConflict,
	)

	ErrSameStation = New(
		"SAME_STATION",
		"Arrival station must differ from departure station",
		http.StatusUnprocessableEntity,
	)

	ErrStationNotFound = New(
		"STATION_NOT_FOUND",
		"Station not found",
		http.StatusNotFound,
	)

	ErrDistrictNotFound = New(
		"DISTRICT_NOT_FOUND",
		"District not found",
		http.StatusNotFound,
	)

	ErrSessionNotFound = New(
		"SESSION_NOT_FOUND",
		"Session not found or expired",
		http.StatusNotFound,
	)
)

// Collaborators
var (
	ErrReferenceDataUnavailable = New(
		"REFERENCE_DATA_UNAVAILABLE",
		"Station data is not available yet, please retry",
		http.StatusServiceUnavailable,
	)

	ErrRouteUnavailable = New(
		"ROUTE_UNAVAILABLE",
		"Could not compute a route between the selected stations",
		http.StatusBadGateway,
	)

	ErrLocationUnavailable = New(
		"LOCATION_UNAVAILABLE",
		"Your location could not be determined, pick a station manually",
		http.StatusServiceUnavailable,
	)
)
