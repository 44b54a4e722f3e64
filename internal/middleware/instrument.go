package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/transport-dispatch/internal/metrics"
)

// Instrument logs every request and records its latency under the
// matched chi route pattern.
func Instrument(logger logrus.FieldLogger, m *metrics.DispatchMetrics) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := routePattern(r)
			elapsed := time.Since(start)
			m.ObserveRequest(r.Method, route, strconv.Itoa(status), elapsed.Seconds())

			entry := logger.WithFields(logrus.Fields{
				"method":     r.Method,
				"route":      route,
				"status":     status,
				"duration":   elapsed.String(),
				"request_id": chimw.GetReqID(r.Context()),
			})
			if status >= http.StatusInternalServerError {
				entry.Warn("request failed")
				return
			}
			entry.Debug("request served")
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
