package apiclient

import (
	"fmt"
	"net/http"
	"time"
)

// RequestInterceptor modifies an outgoing request before it is sent.
// It receives a clone, so changes never leak back to the caller's request.
// Returning an error rejects the request.
type RequestInterceptor func(req *http.Request) error

// InterceptorError is returned by Transport when a request interceptor rejects a request
type InterceptorError struct {
	Err error
}

func (e *InterceptorError) Error() string {
	return fmt.Sprintf("request interceptor: %v", e.Err)
}

func (e *InterceptorError) Unwrap() error {
	return e.Err
}

// Transport is an http.RoundTripper that runs request interceptors, in order,
// on a clone of each request before delegating to Base.
type Transport struct {
	// Base is the underlying HTTP transport. If nil, http.DefaultTransport is used.
	Base http.RoundTripper

	Interceptors []RequestInterceptor
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	reqClone := req.Clone(req.Context())

	for _, intercept := range t.Interceptors {
		if err := intercept(reqClone); err != nil {
			// a RoundTripper must close the body, even on errors
			if req.Body != nil {
				_ = req.Body.Close()
			}
			return nil, &InterceptorError{Err: err}
		}
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	return base.RoundTrip(reqClone)
}

// NewHTTPClient returns a plain *http.Client whose transport runs the supplied interceptors.
// Use it when the status handling done by Client is not wanted.
func NewHTTPClient(timeout time.Duration, base http.RoundTripper, interceptors ...RequestInterceptor) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &Transport{
			Base:         base,
			Interceptors: interceptors,
		},
	}
}
