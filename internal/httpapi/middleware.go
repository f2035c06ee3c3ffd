package httpapi

import (
	"bytes"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"quizgenius/internal/logger"
	"quizgenius/internal/metrics"
)

const maxLoggedBodyBytes = 2048

// statusRecorder captures the status, size and the head of the response body
// for request logging.
type statusRecorder struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
	maxLogBytes  int
	logBody      bytes.Buffer
	truncated    bool
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	n, err := r.ResponseWriter.Write(p)
	r.bytesWritten += n

	if room := r.maxLogBytes - r.logBody.Len(); room > 0 {
		if n > room {
			r.logBody.Write(p[:room])
			r.truncated = true
		} else {
			r.logBody.Write(p[:n])
		}
	} else if n > 0 {
		r.truncated = true
	}
	return n, err
}

func requestLogger(log *logger.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			rec := &statusRecorder{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
				maxLogBytes:    maxLoggedBodyBytes,
			}

			next.ServeHTTP(rec, r)

			elapsed := time.Since(started)
			route := ""
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				route = rctx.RoutePattern()
			}
			m.ObserveRequest(r.Method, route, rec.statusCode, elapsed)

			fields := []interface{}{
				"method", r.Method,
				"path", r.URL.Path,
				"route", route,
				"status", rec.statusCode,
				"bytes", rec.bytesWritten,
				"duration", elapsed,
				"request_id", middleware.GetReqID(r.Context()),
			}
			if rec.statusCode >= http.StatusInternalServerError {
				fields = append(fields, "response", rec.logBody.String(), "truncated", rec.truncated)
				log.Error("request failed", fields...)
				return
			}
			log.Info("request", fields...)
		})
	}
}
