package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"
)

// Recover converts handler panics into 500 responses instead of killing
// the connection. The panic value and stack are logged with request
// correlation; the client only sees a generic error.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger := GetLogger(r.Context())
				logger.Error("panic recovered",
					"panic", rec,
					"path", r.URL.Path,
					"method", r.Method,
					"stack", string(debug.Stack()),
				)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]string{
						"code":    "internal",
						"message": "An unexpected error occurred",
					},
				})
			}
		}()

		next.ServeHTTP(w, r)
	})
}
