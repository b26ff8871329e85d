package middleware

import (
	"net/http"
	"time"

	"github.com/xavierca1/lead-inbox/internal/infra/logger"
)

// AccessLog logs one line per request. Requests slower than slow are logged
// at warn. Query strings are left out since admin tokens may travel there.
func AccessLog(slow time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			elapsed := time.Since(start)
			log := logger.C(r.Context())

			ev := log.Info()
			switch {
			case rw.statusCode >= 500:
				ev = log.Error()
			case slow > 0 && elapsed > slow:
				ev = log.Warn().Bool("slow", true)
			}
			ev.Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rw.statusCode).
				Int("bytes", rw.bytes).
				Dur("elapsed", elapsed).
				Msg("http request")
		})
	}
}
