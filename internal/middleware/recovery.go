package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Recoverer middleware recovers from panics and returns the standard
// error envelope instead of the listener's plain-text 500, so dashboard
// and capture-agent clients can always decode the body.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					requestID := GetRequestID(r.Context())

					logger.Error("panic recovered",
						"error", rec,
						"request_id", requestID,
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte(`{"error":"internal server error","code":"INTERNAL_ERROR"}` + "\n"))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
