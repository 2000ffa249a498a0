package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// Logger returns middleware that puts a request-scoped copy of log, tagged
// with the chi request ID, into the request context and writes one access
// line per request.
func Logger(log zerolog.Logger) func(http.Handler) http.Handler {
	withLogger := hlog.NewHandler(log)
	access := hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		evt := hlog.FromRequest(r).Info()
		if status >= http.StatusInternalServerError {
			evt = hlog.FromRequest(r).Error()
		}
		evt.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	})

	return func(next http.Handler) http.Handler {
		return withLogger(requestID(access(next)))
	}
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := chimw.GetReqID(r.Context()); id != "" {
			zerolog.Ctx(r.Context()).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("request_id", id)
			})
		}
		next.ServeHTTP(w, r)
	})
}
