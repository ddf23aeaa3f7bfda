package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/photogram/photogram-server/internal/http/response"
	"github.com/photogram/photogram-server/internal/logger"
)

// requestLogger tags the request context with chi's request ID for the
// logger's context handler and writes one access log line per request.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := logger.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
			r = r.WithContext(ctx)
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			level := slog.LevelInfo
			if status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			log.Log(ctx, level, "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote_ip", clientIP(r),
			)
		})
	}
}

// recoverer turns panics into a 500 envelope.
func recoverer(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.ErrorContext(r.Context(), "panic serving request",
					"panic", fmt.Sprint(rec),
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)
				response.InternalError(w, "Internal server error", log)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// notFound answers unmatched routes.
func notFound(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, fmt.Sprintf("Route %s %s not found", r.Method, r.URL.RequestURI()), log)
	}
}
