package carrier

// ============================================================================
// CARRIER ERROR CODES
// ============================================================================
// These constants mirror domain error codes to avoid circular imports.
// The handler layer maps these to HTTP status codes.

const (
	codeInternal    = "internal"
	codeInvalid     = "invalid"
	codeUnavailable = "unavailable"
)

// CarrierError represents a carrier-specific error with a code and message.
type CarrierError struct {
	Code    string
	Message string
	Err     error
}

func (e *CarrierError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *CarrierError) Unwrap() error {
	return e.Err
}

// ErrorCode returns the error code for HTTP status mapping.
func (e *CarrierError) ErrorCode() string {
	return e.Code
}

func newCarrierError(code, message string) *CarrierError {
	return &CarrierError{Code: code, Message: message}
}

var (
	// ErrMissingAPIKey is returned when the carrier network API key is missing.
	ErrMissingAPIKey = newCarrierError(codeInternal, "Carrier network API key is required")

	// ErrDestinationRequired is returned when the destination city is missing.
	ErrDestinationRequired = newCarrierError(codeInvalid, "Destination city is required")

	// ErrCarrierRequired is returned when no carrier was selected for booking.
	ErrCarrierRequired = newCarrierError(codeInvalid, "Carrier selection is required")
)

// ErrUnavailable wraps an upstream failure as a non-fatal availability error.
func ErrUnavailable(err error) error {
	return &CarrierError{
		Code:    codeUnavailable,
		Message: "Carrier network is unavailable",
		Err:     err,
	}
}

// IsUnavailable reports whether err is a carrier availability error.
func IsUnavailable(err error) bool {
	ce, ok := err.(*CarrierError)
	return ok && ce.Code == codeUnavailable
}
