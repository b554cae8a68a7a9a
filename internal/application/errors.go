package application

import "errors"

// Sentinel errors returned by the services. Handlers translate them to
// status codes in one place; everything else is reported as upstream.
var (
	ErrNotAuthenticated     = errors.New("not authenticated")
	ErrInvalidInput         = errors.New("invalid input")
	ErrMissingInput         = errors.New("missing input")
	ErrInvalidToken         = errors.New("invalid token")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrEmailTaken           = errors.New("email already in use")
	ErrNotFound             = errors.New("not found")
	ErrInvalidPlan          = errors.New("invalid plan")
	ErrMissingCorrelationID = errors.New("missing correlation id")
	ErrMisconfigured        = errors.New("misconfigured endpoint")
	ErrUpstream             = errors.New("upstream failure")
)
