package middleware

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/information-sharing-networks/webclient/internal/apperrors"
	"github.com/information-sharing-networks/webclient/internal/logger"
	"github.com/information-sharing-networks/webclient/internal/response"
)

// FrontendHeaders are owned by the frontend server. The proxy does not copy them from api responses.
var FrontendHeaders = map[string]bool{
	"Cache-Control":             true,
	"Content-Security-Policy":   true,
	"Referrer-Policy":           true,
	"Set-Cookie":                true,
	"Strict-Transport-Security": true,
	"Vary":                      true,
	"X-Content-Type-Options":    true,
	"X-Frame-Options":           true,
}

// the login page has no scripts and proxied api responses are json
const contentSecurityPolicy = "default-src 'none'; style-src 'self'; frame-ancestors 'none'; form-action 'self'"

// SecurityHeaders sets the headers sent with every frontend response.
// HSTS is only sent when the server runs behind TLS (secure).
func SecurityHeaders(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Content-Security-Policy", contentSecurityPolicy)

			// api paths can carry identifiers that should not leak to other sites
			h.Set("Referrer-Policy", "no-referrer")

			if secure {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// PrivateResponses marks responses that depend on the session cookie.
// Shared caches must not store them; the browser revalidates (ETag / If-None-Match are forwarded to the api).
func PrivateResponses(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "private, no-cache")
		w.Header().Set("Vary", "Cookie")
		next.ServeHTTP(w, r)
	})
}

// RequestSizeLimit rejects request bodies larger than maxBytes before they are forwarded to the api.
//
// Requests that declare a Content-Length over the limit get a 413 straight away.
// Other bodies are wrapped in http.MaxBytesReader: reading past the limit fails while the proxy is
// sending the upstream request, and the proxy reports that as a 413.
func RequestSizeLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body == nil || r.Body == http.NoBody {
				next.ServeHTTP(w, r)
				return
			}

			if r.ContentLength > maxBytes {
				logger.ContextWithLogAttrs(r.Context(),
					slog.Int64("content_length", r.ContentLength),
					slog.Int64("max_request_size", maxBytes),
				)

				response.RespondWithError(w, r, http.StatusRequestEntityTooLarge, apperrors.ErrCodeRequestTooLarge,
					fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytes))
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// idle client limiters are dropped after this long
const limiterIdleTimeout = 3 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiters holds one token bucket per client address
type clientLimiters struct {
	mu        sync.Mutex
	limiters  map[string]*clientLimiter
	limit     rate.Limit
	burst     int
	lastSweep time.Time
}

func newClientLimiters(requestsPerSecond, burst int32) *clientLimiters {
	return &clientLimiters{
		limiters: make(map[string]*clientLimiter),
		limit:    rate.Limit(requestsPerSecond),
		burst:    int(burst),
	}
}

func (c *clientLimiters) allow(client string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if now.Sub(c.lastSweep) > limiterIdleTimeout {
		for key, l := range c.limiters {
			if now.Sub(l.lastSeen) > limiterIdleTimeout {
				delete(c.limiters, key)
			}
		}
		c.lastSweep = now
	}

	l, ok := c.limiters[client]
	if !ok {
		l = &clientLimiter{limiter: rate.NewLimiter(c.limit, c.burst)}
		c.limiters[client] = l
	}
	l.lastSeen = now

	return l.limiter.AllowN(now, 1)
}

// clientAddress is the remote ip (RealIP has already applied X-Forwarded-For / X-Real-IP)
func clientAddress(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit limits each client address to requestsPerSecond, so one browser cannot use up
// the api quota of everyone sharing the frontend. If requestsPerSecond <= 0, rate limiting is disabled.
func RateLimit(requestsPerSecond int32, burst int32) func(http.Handler) http.Handler {
	if requestsPerSecond <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	limiters := newClientLimiters(requestsPerSecond, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := clientAddress(r)
			if !limiters.allow(client, time.Now()) {
				logger.ContextWithLogAttrs(r.Context(),
					slog.String("client", client),
				)

				w.Header().Set("Retry-After", "1")
				response.RespondWithError(w, r, http.StatusTooManyRequests,
					apperrors.ErrCodeRateLimitExceeded, "Rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
