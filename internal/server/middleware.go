package server

import (
	"net/http"
	"time"

	"call-compliance-go/internal/logger"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// WithLogging logs one line per request and turns panics into 500s.
func WithLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := logger.RequestID(r)
		w.Header().Set("X-Request-ID", reqID)
		rec := &statusRecorder{ResponseWriter: w}

		defer func() {
			if p := recover(); p != nil {
				logger.New().WithRequest(r).WithField("panic", p).Error("handler panicked")
				if rec.status == 0 {
					writeDetail(rec, http.StatusInternalServerError, "Internal server error")
				}
			}
			entry := logger.New().WithRequest(r).
				WithField("status", rec.status).
				WithField("bytes", rec.bytes).
				WithField("duration_ms", time.Since(start).Milliseconds())
			if r.URL.Path == "/healthz" {
				entry.Debug("request served")
				return
			}
			entry.Info("request served")
		}()
		next.ServeHTTP(rec, r)
	})
}
