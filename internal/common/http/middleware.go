package http

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/google/uuid"

	"shop-documents/internal/common/errors"
	"shop-documents/internal/common/logger"
	"shop-documents/internal/common/metrics"
)

const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// RequestIDFromContext returns the id assigned by Instrument, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// WithRequestID stores id in ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// Instrument assigns a request id, recovers panics, records the request
// metrics for route and writes one log line per request.
func Instrument(route string, log logger.Logger, next http.Handler) http.Handler {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)
		reqLog := log.WithFields(map[string]interface{}{"requestId": id, "route": route})
		r = r.WithContext(logger.IntoContext(WithRequestID(r.Context(), id), reqLog))

		rec := &statusRecorder{ResponseWriter: w}
		defer func() {
			if p := recover(); p != nil {
				reqLog.Error("Panic in HTTP handler", map[string]interface{}{
					"panic": fmt.Sprint(p),
					"stack": string(debug.Stack()),
				})
				if rec.status == 0 {
					WriteError(rec, r, errors.NewInternalError("Unexpected server error", fmt.Errorf("panic: %v", p)))
				}
			}

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)
			metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())

			reqLog.Info("HTTP request", map[string]interface{}{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     status,
				"bytes":      rec.bytes,
				"durationMs": elapsed.Milliseconds(),
				"remoteAddr": r.RemoteAddr,
			})
		}()

		next.ServeHTTP(rec, r)
	})
}

// MethodGuard answers 405 for any method other than method.
func MethodGuard(method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.Header().Set("Allow", method)
			WriteJSON(w, http.StatusMethodNotAllowed, ErrorResponse{
				Error:     fmt.Sprintf("method %s not allowed", r.Method),
				Code:      "METHOD_NOT_ALLOWED",
				RequestID: RequestIDFromContext(r.Context()),
			})
			return
		}
		next(w, r)
	}
}
