package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/information-sharing-networks/webclient/internal/apiclient"
	"github.com/information-sharing-networks/webclient/internal/apperrors"
	"github.com/information-sharing-networks/webclient/internal/logger"
	"github.com/information-sharing-networks/webclient/internal/middleware"
	"github.com/information-sharing-networks/webclient/internal/response"
	"github.com/information-sharing-networks/webclient/internal/tokenstore"
)

type HandlerService struct {
	ApiClient *apiclient.Client
	LoginPath string
	Secure    bool // mark session cookies Secure
}

type SetTokenRequest struct {
	AccessToken string `json:"access_token"`
}

// headers copied from the browser request to the api request
var forwardedRequestHeaders = []string{
	"Content-Type",
	"Accept",
	"Accept-Language",
	"If-None-Match",
	"If-Modified-Since",
}

// hop-by-hop headers are not copied from the api response (nor are middleware.FrontendHeaders)
var hopByHopHeaders = map[string]bool{
	"Connection":          true,
	"Keep-Alive":          true,
	"Proxy-Authenticate":  true,
	"Proxy-Authorization": true,
	"Te":                  true,
	"Trailer":             true,
	"Transfer-Encoding":   true,
	"Upgrade":             true,
}

const loginPage = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Login required</title></head>
<body>
<h1>Login required</h1>
<p>Your session has expired or you are not logged in. Please log in to continue.</p>
</body>
</html>
`

func (h *HandlerService) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// HandleLogin renders the page users are sent to when the api rejects their access token
func (h *HandlerService) HandleLogin(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(loginPage))
}

// HandleSetToken stores the access token issued by the login flow in the browser's session cookie
func (h *HandlerService) HandleSetToken(w http.ResponseWriter, r *http.Request) {
	var req SetTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondWithError(w, r, http.StatusBadRequest, apperrors.ErrCodeMalformedBody, "could not decode request body")
		return
	}

	if strings.TrimSpace(req.AccessToken) == "" {
		response.RespondWithError(w, r, http.StatusBadRequest, apperrors.ErrCodeInvalidRequest, "access_token is required")
		return
	}

	store := tokenstore.NewCookieStore(w, r, h.Secure)
	if err := store.Set(tokenstore.AccessTokenKey, req.AccessToken); err != nil {
		response.RespondWithError(w, r, http.StatusInternalServerError, apperrors.ErrCodeInternalError, "could not store access token")
		return
	}

	response.RespondWithStatusCodeOnly(w, http.StatusNoContent)
}

// HandleClearToken removes the access token cookie (logout)
func (h *HandlerService) HandleClearToken(w http.ResponseWriter, r *http.Request) {
	store := tokenstore.NewCookieStore(w, r, h.Secure)
	if err := store.Delete(tokenstore.AccessTokenKey); err != nil {
		response.RespondWithError(w, r, http.StatusInternalServerError, apperrors.ErrCodeInternalError, "could not clear access token")
		return
	}

	response.RespondWithStatusCodeOnly(w, http.StatusNoContent)
}

// HandleAPIProxy forwards /api/<path> to <api base url>/<path> using the access token from the browser's session cookie.
//
// Successful api responses are copied back unchanged.
// A 401 from the api redirects the browser to the login page; other api errors are returned as received.
func (h *HandlerService) HandleAPIProxy(w http.ResponseWriter, r *http.Request) {
	reqLogger := logger.ContextRequestLogger(r.Context())

	// the escaped path keeps encoded '?', '#' and '/' inside path segments
	path := strings.TrimPrefix(r.URL.EscapedPath(), "/api")
	if r.URL.RawQuery != "" {
		path += "?" + r.URL.RawQuery
	}

	store := tokenstore.NewCookieStore(w, r, h.Secure)
	ctx := tokenstore.ContextWithStore(r.Context(), store)

	var body io.Reader
	if r.ContentLength != 0 && r.Body != nil && r.Body != http.NoBody {
		body = r.Body
	}

	apiReq, err := h.ApiClient.NewRequest(ctx, r.Method, path, body)
	if err != nil {
		response.RespondWithError(w, r, http.StatusBadRequest, apperrors.ErrCodeInvalidRequest, "invalid api path")
		return
	}
	if body != nil {
		apiReq.ContentLength = r.ContentLength
	}
	for _, name := range forwardedRequestHeaders {
		if value := r.Header.Get(name); value != "" {
			apiReq.Header.Set(name, value)
		}
	}

	res, err := h.ApiClient.Do(ctx, apiReq)
	if err != nil {
		h.handleAPIError(w, r, err)
		return
	}
	defer res.Body.Close()

	logger.ContextWithLogAttrs(r.Context(), slog.Int("upstream_status", res.StatusCode))

	copyHeaders(w.Header(), res.Header)
	w.WriteHeader(res.StatusCode)
	if _, err := io.Copy(w, res.Body); err != nil {
		reqLogger.Warn("failed to copy api response",
			slog.String("component", "server.HandleAPIProxy"),
			slog.String("error", err.Error()),
		)
	}
}

func (h *HandlerService) handleAPIError(w http.ResponseWriter, r *http.Request, err error) {
	reqLogger := logger.ContextRequestLogger(r.Context())

	var clientErr *apiclient.ClientError
	if !errors.As(err, &clientErr) {
		response.RespondWithError(w, r, http.StatusInternalServerError, apperrors.ErrCodeInternalError, "An error occurred. Please try again later.")
		return
	}

	logger.ContextWithLogAttrs(r.Context(), slog.Int("upstream_status", clientErr.StatusCode))

	var maxBytesErr *http.MaxBytesError
	switch {
	case clientErr.StatusCode == http.StatusUnauthorized:
		reqLogger.Debug("api rejected access token - redirecting to login",
			slog.String("component", "server.HandleAPIProxy"),
			slog.String("error", clientErr.LogMessage),
		)
		redirectToLogin(w, r, h.LoginPath)

	case errors.As(err, &maxBytesErr):
		response.RespondWithError(w, r, http.StatusRequestEntityTooLarge, apperrors.ErrCodeRequestTooLarge, "Request body too large")

	case clientErr.StatusCode == 0:
		reqLogger.Error("api request failed",
			slog.String("component", "server.HandleAPIProxy"),
			slog.String("error", clientErr.LogMessage),
		)
		response.RespondWithError(w, r, http.StatusBadGateway, apperrors.ErrCodeUpstreamUnavailable, clientErr.UserError())

	default:
		copyHeaders(w.Header(), clientErr.Header)
		w.WriteHeader(clientErr.StatusCode)
		_, _ = w.Write(clientErr.Body)
	}
}

func copyHeaders(dst, src http.Header) {
	for name, values := range src {
		name = http.CanonicalHeaderKey(name)
		if hopByHopHeaders[name] || middleware.FrontendHeaders[name] || strings.HasPrefix(name, "Access-Control-") {
			continue
		}
		// error bodies may be truncated; net/http sets the length of what is written
		if name == "Content-Length" {
			continue
		}
		for _, value := range values {
			dst.Add(name, value)
		}
	}
}

// redirectToLogin redirects to the login page for both HTMX and direct requests
func redirectToLogin(w http.ResponseWriter, r *http.Request, loginPath string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", loginPath)
		w.WriteHeader(http.StatusOK)
	} else {
		http.Redirect(w, r, loginPath, http.StatusSeeOther)
	}
}
