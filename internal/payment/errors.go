package payment

// Error codes mirror domain codes to avoid circular imports.
const (
	codeInternal    = "internal"
	codeInvalid     = "invalid"
	codeUnavailable = "unavailable"
)

// PaymentError represents a gateway-specific error with a code and message.
type PaymentError struct {
	Code    string
	Message string
	Err     error
}

func (e *PaymentError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}

// ErrorCode returns the error code for HTTP status mapping.
func (e *PaymentError) ErrorCode() string {
	return e.Code
}

var (
	// ErrMissingCredentials is returned when gateway credentials are absent.
	ErrMissingCredentials = &PaymentError{Code: codeInternal, Message: "Payment gateway credentials are required"}

	// ErrAmountRequired is returned for non-positive session amounts.
	ErrAmountRequired = &PaymentError{Code: codeInvalid, Message: "Payment amount must be positive"}
)

// ErrGateway wraps an upstream gateway failure.
func ErrGateway(err error) error {
	return &PaymentError{
		Code:    codeUnavailable,
		Message: "Payment gateway is unavailable",
		Err:     err,
	}
}
