package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/information-sharing-networks/webclient/internal/tokenstore"
)

const (
	// DefaultTimeout is the request timeout used when WithTimeout is not supplied
	DefaultTimeout = 10 * time.Second

	// matches the Accept header browsers send with xhr requests
	defaultAccept = "application/json, text/plain, */*"
)

// Client handles communication with the api
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	timeout        time.Duration
	baseTransport  http.RoundTripper
	tokenStore     tokenstore.Store
	onUnauthorized UnauthorizedHandler

	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor
}

type Option func(*Client)

// WithTimeout sets the request timeout. Default is 10 seconds.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithTokenStore sets the client-local storage the access token is read from.
// Without a store no Authorization header is sent (unless the request context carries one).
func WithTokenStore(store tokenstore.Store) Option {
	return func(c *Client) {
		c.tokenStore = store
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithBaseTransport sets the transport the interceptors delegate to (defaults to http.DefaultTransport).
func WithBaseTransport(transport http.RoundTripper) Option {
	return func(c *Client) {
		c.baseTransport = transport
	}
}

// WithRequestInterceptor adds a request interceptor. It runs after the default interceptors.
func WithRequestInterceptor(interceptor RequestInterceptor) Option {
	return func(c *Client) {
		c.requestInterceptors = append(c.requestInterceptors, interceptor)
	}
}

// WithResponseInterceptor adds a response interceptor. It runs after the default status handler.
func WithResponseInterceptor(interceptor ResponseInterceptor) Option {
	return func(c *Client) {
		c.responseInterceptors = append(c.responseInterceptors, interceptor)
	}
}

// WithUnauthorizedHandler sets the action taken when the api responds 401, typically a redirect to login.
func WithUnauthorizedHandler(handler UnauthorizedHandler) Option {
	return func(c *Client) {
		c.onUnauthorized = handler
	}
}

// NewClient creates a client for the api at baseURL (e.g "http://localhost:8000/api/v1").
func NewClient(baseURL string, options ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}

	for _, opt := range options {
		opt(c)
	}

	requestInterceptors := append([]RequestInterceptor{
		RequestID(),
		BearerToken(c.tokenStore),
	}, c.requestInterceptors...)
	c.requestInterceptors = requestInterceptors

	responseInterceptors := append([]ResponseInterceptor{
		StatusHandler(c.logger, c.onUnauthorized),
	}, c.responseInterceptors...)
	c.responseInterceptors = responseInterceptors

	c.httpClient = NewHTTPClient(c.timeout, c.baseTransport, c.requestInterceptors...)

	return c
}

// BaseURL returns the api base url without a trailing slash
func (c *Client) BaseURL() string {
	return c.baseURL
}

// HTTPClient returns the underlying http client (timeout and request interceptors, no status handling)
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// URL resolves path against the base url.
// Absolute urls are returned unchanged, otherwise the base and path are joined with a single '/'.
func (c *Client) URL(path string) (*url.URL, error) {
	if u, err := url.Parse(path); err == nil && u.IsAbs() {
		return u, nil
	}

	if path == "" {
		return url.Parse(c.baseURL)
	}

	return url.Parse(c.baseURL + "/" + strings.TrimLeft(path, "/"))
}

// NewRequest creates a request for path, relative to the base url.
func (c *Client) NewRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	u, err := c.URL(path)
	if err != nil {
		return nil, NewClientInternalError(err, "parsing request url")
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, NewClientInternalError(err, "creating request")
	}

	req.Header.Set("Accept", defaultAccept)
	return req, nil
}

// Do sends req using ctx.
//
// Relative request urls are resolved against the base url.
// A 2xx response is returned after the response interceptors have seen it; the caller must close the body.
// Any other outcome is returned as an error, normally a *ClientError, after the rejection chain has run.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)

	if !req.URL.IsAbs() {
		u, err := c.URL(req.URL.String())
		if err != nil {
			if req.Body != nil {
				_ = req.Body.Close()
			}
			return c.settle(nil, NewClientInternalError(err, "resolving request url"))
		}
		req.URL = u
		req.Host = ""
	}

	start := time.Now()
	res, err := c.httpClient.Do(req)
	if err != nil {
		var interceptorErr *InterceptorError
		if errors.As(err, &interceptorErr) {
			return c.settle(nil, NewClientInternalError(interceptorErr.Err, "preparing request"))
		}
		return c.settle(nil, NewClientConnectionError(req, err))
	}

	c.logger.Debug("api request completed",
		slog.String("component", "apiclient.Do"),
		slog.String("method", req.Method),
		slog.String("url", req.URL.Redacted()),
		slog.Int("status", res.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		clientErr := NewClientApiError(res)
		_ = res.Body.Close()
		return c.settle(nil, clientErr)
	}

	return c.settle(res, nil)
}

// settle runs the response interceptors in order: OnFulfilled while there is no error, OnRejected once there is one.
func (c *Client) settle(res *http.Response, err error) (*http.Response, error) {
	for _, interceptor := range c.responseInterceptors {
		if err != nil {
			if interceptor.OnRejected == nil {
				continue
			}
			recovered, rejectErr := interceptor.OnRejected(err)
			if recovered == nil && rejectErr == nil {
				continue
			}
			res, err = recovered, rejectErr
			continue
		}

		if interceptor.OnFulfilled != nil {
			res, err = interceptor.OnFulfilled(res)
		}
	}

	if err != nil {
		if res != nil && res.Body != nil {
			_ = res.Body.Close()
		}
		return nil, err
	}
	return res, nil
}

// Get fetches path and decodes the json response into out (out may be nil)
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, out)
}

// Post sends in as json and decodes the json response into out (in and out may be nil)
func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	return c.doJSON(ctx, http.MethodPost, path, in, out)
}

func (c *Client) Put(ctx context.Context, path string, in, out any) error {
	return c.doJSON(ctx, http.MethodPut, path, in, out)
}

func (c *Client) Patch(ctx context.Context, path string, in, out any) error {
	return c.doJSON(ctx, http.MethodPatch, path, in, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.doJSON(ctx, http.MethodDelete, path, nil, out)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		jsonData, err := json.Marshal(in)
		if err != nil {
			return NewClientInternalError(err, fmt.Sprintf("marshaling %s %s request", method, path))
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := c.NewRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return NewClientInternalError(err, fmt.Sprintf("decoding %s %s response", method, path))
	}

	return nil
}
