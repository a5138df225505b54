package apiclient

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/information-sharing-networks/webclient/internal/tokenstore"
)

// RequestIDHeader carries the request id to the api (the same header chi's RequestID middleware reads)
const RequestIDHeader = "X-Request-Id"

// ResponseInterceptor is invoked after a response or error is received.
//
// OnFulfilled receives 2xx responses. OnRejected receives errors: non-2xx responses (as *ClientError),
// network errors and rejected requests. OnRejected may recover by returning a response;
// returning (nil, nil) keeps the original error.
// Either func may be nil.
type ResponseInterceptor struct {
	OnFulfilled func(res *http.Response) (*http.Response, error)
	OnRejected  func(err error) (*http.Response, error)
}

// UnauthorizedHandler is called when the api responds 401.
type UnauthorizedHandler func(err *ClientError)

// BearerToken returns a request interceptor that reads the access token from client-local storage
// and sets "Authorization: Bearer <token>".
//
// A store carried in the request context (tokenstore.ContextWithStore) takes precedence over store.
// When there is no store, or no token is stored, the request is sent without an Authorization header.
//
// The token is not sent when http.Client follows a redirect to a different host, or from https to http.
func BearerToken(store tokenstore.Store) RequestInterceptor {
	return func(req *http.Request) error {
		if redirectedAway(req) {
			return nil
		}

		s := store
		if ctxStore, ok := tokenstore.StoreFromContext(req.Context()); ok {
			s = ctxStore
		}
		if s == nil {
			return nil
		}

		token, ok := s.Get(tokenstore.AccessTokenKey)
		if !ok || token == "" {
			return nil
		}

		(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
		return nil
	}
}

// redirectedAway reports whether req is a redirect that left the host (or the https scheme)
// of the request that started the redirect chain.
func redirectedAway(req *http.Request) bool {
	if req.Response == nil {
		return false
	}

	origin := req
	for origin.Response != nil && origin.Response.Request != nil {
		origin = origin.Response.Request
	}

	if !strings.EqualFold(origin.URL.Host, req.URL.Host) {
		return true
	}
	return origin.URL.Scheme == "https" && req.URL.Scheme != "https"
}

// RequestID returns a request interceptor that sets the X-Request-Id header when the caller did not.
// If the request context was created by chi's RequestID middleware the incoming id is forwarded,
// otherwise a new uuid is generated.
func RequestID() RequestInterceptor {
	return func(req *http.Request) error {
		if req.Header.Get(RequestIDHeader) != "" {
			return nil
		}
		requestID := middleware.GetReqID(req.Context())
		if requestID == "" {
			requestID = uuid.New().String()
		}
		req.Header.Set(RequestIDHeader, requestID)
		return nil
	}
}

// StatusHandler returns the response interceptor that performs the centralized status handling:
//   - successful responses are returned unchanged
//   - 401: onUnauthorized is called (when nil the redirect to login is skipped and only logged)
//   - 500: the server error is logged
//
// The error is always passed on unchanged so callers still see the failure.
func StatusHandler(logger *slog.Logger, onUnauthorized UnauthorizedHandler) ResponseInterceptor {
	return ResponseInterceptor{
		OnFulfilled: func(res *http.Response) (*http.Response, error) {
			return res, nil
		},
		OnRejected: func(err error) (*http.Response, error) {
			var clientErr *ClientError
			if !errors.As(err, &clientErr) {
				return nil, err
			}

			switch clientErr.StatusCode {
			case http.StatusUnauthorized:
				if onUnauthorized != nil {
					onUnauthorized(clientErr)
					break
				}
				logger.Debug("unauthorized response, no login redirect configured",
					slog.String("component", "apiclient.StatusHandler"),
					slog.String("method", clientErr.Method),
					slog.String("url", clientErr.URL),
				)
			case http.StatusInternalServerError:
				logger.Error("Server error. Please try again later.",
					slog.String("component", "apiclient.StatusHandler"),
					slog.String("method", clientErr.Method),
					slog.String("url", clientErr.URL),
					slog.String("error", clientErr.LogMessage),
				)
			}

			return nil, err
		},
	}
}
