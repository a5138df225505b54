package logger

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

/*
Two types of logging are available to the frontend server handlers:

1. immediate logging (ContextRequestLogger):
   - Use for events that occur during request processing

2. request completion logging (ContextWithLogAttrs):
   - Use for attributes that should appear in the final HTTP request log
*/

// RequestLogging is a middleware that logs HTTP requests
func RequestLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip logging for health requests
			if strings.HasPrefix(r.URL.Path, "/health/") {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			requestID := middleware.GetReqID(r.Context())

			var component string
			switch {
			case strings.HasPrefix(r.URL.Path, "/api/"):
				component = "api-proxy"
			case strings.HasPrefix(r.URL.Path, "/auth/"):
				component = "auth"
			default:
				component = "ui"
			}

			requestLogger := logger.With(
				slog.String("type", "middleware"),
				slog.String("request_id", requestID),
			)

			// shared slice for attributes that handlers can modify
			sharedAttrs := &[]slog.Attr{}

			ctx := context.WithValue(r.Context(), logAttrsKey, sharedAttrs)
			ctx = ContextWithRequestLogger(ctx, requestLogger)

			req := r.WithContext(ctx)

			// Wrap response writer to capture status
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, req)

			duration := time.Since(start)

			logAttrs := []slog.Attr{
				slog.String("type", "HTTP"),
				slog.Int("status", ww.Status()),
				slog.String("request_id", requestID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("component", component),
			}

			if contextAttrs := ContextLogAttrs(req.Context()); len(contextAttrs) > 0 {
				logAttrs = append(logAttrs, contextAttrs...)
			}

			logAttrs = append(logAttrs,
				slog.Duration("duration", duration),
				slog.Int("bytes", ww.BytesWritten()),
			)

			switch {
			case ww.Status() >= 500:
				logger.LogAttrs(r.Context(), slog.LevelError, "request completed", logAttrs...)
			case ww.Status() >= 400:
				logger.LogAttrs(r.Context(), slog.LevelWarn, "request completed", logAttrs...)
			default:
				logger.LogAttrs(r.Context(), slog.LevelInfo, "request completed", logAttrs...)
			}
		})
	}
}
