package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrForbidden        = fmt.Errorf("forbidden")
	ErrTokenExpired     = fmt.Errorf("access token expired")

	// Validation errors
	ErrValidationFailed = fmt.Errorf("validation failed")
	ErrNoteTooLong      = fmt.Errorf("%w: note too long", ErrValidationFailed)
	ErrInvalidMood      = fmt.Errorf("%w: invalid mood", ErrValidationFailed)
	ErrInvalidDate      = fmt.Errorf("%w: invalid date", ErrValidationFailed)

	// Persistence errors
	ErrStorageFailure = fmt.Errorf("storage failure")
	ErrNetworkFailure = fmt.Errorf("network failure")
	ErrNotFound       = fmt.Errorf("not found")
	ErrConflict       = fmt.Errorf("conflict")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
