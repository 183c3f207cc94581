package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrCredentialInvalid  = fmt.Errorf("credential invalid or expired")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrQuotaExceeded      = fmt.Errorf("quota exceeded")
	ErrMalformedResponse  = fmt.Errorf("malformed response")
	ErrTimeout            = fmt.Errorf("operation timed out")

	// Wizard errors
	ErrIncompleteSelection = fmt.Errorf("destination, view and mood must all be selected")
	ErrGenerationInFlight  = fmt.Errorf("generation already in progress")
	ErrInvalidStep         = fmt.Errorf("operation not allowed at this step")
	ErrEmptyInput          = fmt.Errorf("input is empty")

	// Rendering errors
	ErrImageDecode = fmt.Errorf("image could not be decoded")
	ErrRender      = fmt.Errorf("render failed")

	// Storage errors
	ErrNotFound = fmt.Errorf("record not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
