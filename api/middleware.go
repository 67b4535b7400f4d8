package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/starnotary/notary/errors"
	"github.com/starnotary/notary/exception"
	"github.com/starnotary/notary/logx"
	"github.com/starnotary/notary/monitoring"
)

const RequestIDHeader = "X-Request-Id"

type requestIDKey struct{}

// RequestID returns the id assigned to the request carried by ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func clientIP(r *http.Request) string {
	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return ip
	}
	return r.RemoteAddr
}

// instrument assigns a request id, recovers panics, logs the request and
// records it under route.
func (s *APIServer) instrument(route string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			if p := recover(); p != nil {
				exception.ReportPanic(route, p)
				writeFailure(rec, http.StatusInternalServerError, StatusInternal, errors.ErrMsgInternal)
			}
			monitoring.RecordHTTPRequest(route, rec.status)
			logx.Info("API", fmt.Sprintf("%s %s %d %s ip=%s id=%s", r.Method, r.URL.Path, rec.status, time.Since(start), clientIP(r), id))
		}()

		next(rec, r)
	})
}

// limited applies the per client IP rate limit.
func (s *APIServer) limited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.IPLimiter != nil && !s.IPLimiter.Allow(clientIP(r)) {
			writeFailure(w, http.StatusTooManyRequests, StatusTooManyRequests, errors.ErrMsgRateLimited)
			return
		}
		next(w, r)
	}
}
