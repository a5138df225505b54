package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/information-sharing-networks/webclient/internal/apperrors"
)

// maxErrorBodySize limits how much of an error response is kept on the ClientError
const maxErrorBodySize = 1 << 20

// ClientError represents an error encountered when communicating with the api.
// StatusCode 0 = network/connection/internal error, >0 = HTTP response received
type ClientError struct {
	StatusCode  int                 `json:"status_code"`
	ErrorCode   apperrors.ErrorCode `json:"error_code,omitempty"`
	UserMessage string              `json:"user_message"`
	LogMessage  string              `json:"log_message"`
	Method      string              `json:"method,omitempty"`
	URL         string              `json:"url,omitempty"`

	// Header and Body of the error response, if one was received
	Header http.Header `json:"-"`
	Body   []byte      `json:"-"`

	Err error `json:"-"`
}

func (e *ClientError) Error() string {
	return e.LogMessage
}

func (e *ClientError) Unwrap() error {
	return e.Err
}

// UserError returns the user-friendly message
func (e *ClientError) UserError() string {
	return e.UserMessage
}

// IsStatus reports whether err is a ClientError carrying the given HTTP status
func IsStatus(err error, statusCode int) bool {
	var clientErr *ClientError
	return errors.As(err, &clientErr) && clientErr.StatusCode == statusCode
}

// NewClientConnectionError creates a ClientError for network/connection issues, including timeouts
func NewClientConnectionError(req *http.Request, err error) *ClientError {
	clientErr := &ClientError{
		StatusCode:  0,
		UserMessage: "Unable to connect. Please check your internet connection and try again.",
		LogMessage:  fmt.Sprintf("network error: %v", err),
		Err:         err,
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		clientErr.UserMessage = "The request timed out. Please try again."
		clientErr.LogMessage = fmt.Sprintf("request timed out: %v", err)
	}

	withRequest(clientErr, req)
	return clientErr
}

// NewClientInternalError creates a ClientError for internal errors, supply the error and an explanation of what was being done when the error occurred
func NewClientInternalError(err error, while string) *ClientError {
	return &ClientError{
		StatusCode:  0,
		UserMessage: "An error occurred. Please try again later.",
		LogMessage:  fmt.Sprintf("internal error: %v while %v", err, while),
		Err:         err,
	}
}

// NewClientApiError creates a ClientError from a non-2xx HTTP response sent by the api.
// The response body is read (up to 1MB) and kept on the error; the caller closes it.
func NewClientApiError(res *http.Response) *ClientError {
	var serverErr apperrors.ErrorResponse

	var body []byte
	if res.Body != nil {
		body, _ = io.ReadAll(io.LimitReader(res.Body, maxErrorBodySize))
		if len(body) > 0 {
			_ = json.Unmarshal(body, &serverErr)
		}
	}

	var userMsg string
	switch res.StatusCode {
	case http.StatusUnauthorized:
		userMsg = "Your session has expired or is invalid. Please log in again."
	case http.StatusForbidden:
		userMsg = "You don't have permission to access this resource."
	case http.StatusNotFound:
		userMsg = "The requested resource was not found."
	case http.StatusBadRequest:
		// Use server message for validation errors if available
		if serverErr.Message != "" {
			userMsg = serverErr.Message
		} else {
			userMsg = "Invalid request. Please check your input and try again."
		}
	case http.StatusTooManyRequests:
		userMsg = "Too many requests. Please try again in a few moments."
	case http.StatusInternalServerError:
		userMsg = "Server error. Please try again later."
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		userMsg = "The service is temporarily unavailable. Please try again later."
	default:
		userMsg = "An error occurred. Please try again."
	}

	logMsg := fmt.Sprintf("api status %d", res.StatusCode)
	if serverErr.Message != "" {
		logMsg += fmt.Sprintf(" - %s", serverErr.Message)
	}

	clientErr := &ClientError{
		StatusCode:  res.StatusCode,
		ErrorCode:   serverErr.ErrorCode,
		UserMessage: userMsg,
		LogMessage:  logMsg,
		Header:      res.Header.Clone(),
		Body:        body,
	}
	withRequest(clientErr, res.Request)
	return clientErr
}

func withRequest(clientErr *ClientError, req *http.Request) {
	if req == nil {
		return
	}
	clientErr.Method = req.Method
	if req.URL != nil {
		clientErr.URL = req.URL.Redacted()
	}
}
