package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Shade1269/atlannew-sub000/internal/carrier"
	"github.com/Shade1269/atlannew-sub000/internal/domain"
	"github.com/Shade1269/atlannew-sub000/internal/middleware"
	"github.com/Shade1269/atlannew-sub000/internal/payment"
)

// validate is the shared request validator. Struct tags on request types
// drive it.
var validate = validator.New()

// SessionHeader carries the storefront session id. The client persists it
// and sends it with every cart and checkout call.
const SessionHeader = "X-Session-ID"

// IdempotencyKeyHeader lets clients retry order submission safely.
const IdempotencyKeyHeader = "Idempotency-Key"

// JSONResponse writes a JSON body with the given status code.
func JSONResponse(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		json.NewEncoder(w).Encode(body)
	}
}

// DecodeJSON decodes the request body into dst and runs struct validation.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domain.Invalid("handler.decode", "Invalid JSON request body")
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			var out error
			for _, fe := range verrs {
				out = domain.AddFieldError(out, strings.ToLower(fe.Field()), "This field is invalid")
			}
			return out
		}
		return domain.Invalid("handler.decode", "Invalid request")
	}
	return nil
}

// ErrorResponse writes a structured JSON error for the given domain error.
// Validation errors include a fields map; internal errors hide details.
func ErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.ErrorCode(err)
	message := domain.ErrorMessage(err)
	status := ErrorCodeToHTTPStatus(code)

	logger := middleware.GetLogger(r.Context())
	attrs := []any{
		"error", err.Error(),
		"code", code,
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
	}
	if status >= 500 {
		logger.Error("request failed", attrs...)
	} else {
		logger.Info("request failed", attrs...)
	}

	errBody := map[string]any{
		"code":    code,
		"message": message,
	}
	if fields := domain.GetValidationFields(err); len(fields) > 0 {
		errBody["fields"] = fields
	}

	JSONResponse(w, status, map[string]any{"error": errBody})
}

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest // 400
	case domain.EPAYMENT:
		return http.StatusPaymentRequired // 402
	case domain.EFORBIDDEN:
		return http.StatusForbidden // 403
	case domain.ENOTFOUND:
		return http.StatusNotFound // 404
	case domain.ECONFLICT:
		return http.StatusConflict // 409
	case domain.EUNAVAILABLE:
		return http.StatusServiceUnavailable // 503
	default:
		return http.StatusInternalServerError // 500
	}
}

// mapProviderError lifts carrier and payment adapter errors into domain
// errors so the status mapping applies uniformly.
func mapProviderError(err error) error {
	var ce *carrier.CarrierError
	if errors.As(err, &ce) {
		if ce.Code == "unavailable" {
			return domain.Unavailable(err, "", ce.Message)
		}
		return domain.Invalid("", ce.Message)
	}
	var pe *payment.PaymentError
	if errors.As(err, &pe) {
		if pe.Code == "unavailable" {
			return domain.Unavailable(err, "", pe.Message)
		}
		return domain.Invalid("", pe.Message)
	}
	return err
}

// sessionID extracts the storefront session id from the request.
func sessionID(r *http.Request) string {
	return r.Header.Get(SessionHeader)
}
