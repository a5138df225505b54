package apperrors

// ErrorCode is the machine readable code sent in error response bodies
// by the api and by the frontend server.
type ErrorCode string

const (
	ErrCodeAccessTokenExpired    ErrorCode = "access_token_expired"
	ErrCodeAuthenticationFailure ErrorCode = "authentication_error"
	ErrCodeAuthorizationFailure  ErrorCode = "authorization_error"
	ErrCodeForbidden             ErrorCode = "forbidden"
	ErrCodeInternalError         ErrorCode = "internal_error"
	ErrCodeInvalidRequest        ErrorCode = "invalid_request"
	ErrCodeMalformedBody         ErrorCode = "malformed_body"
	ErrCodeRateLimitExceeded     ErrorCode = "rate_limit_exceeded"
	ErrCodeRequestTooLarge       ErrorCode = "request_too_large"
	ErrCodeResourceNotFound      ErrorCode = "resource_not_found"
	ErrCodeTokenInvalid          ErrorCode = "token_invalid"
	ErrCodeUpstreamUnavailable   ErrorCode = "upstream_unavailable"
)

// ErrorResponse is the json body of an error response
type ErrorResponse struct {
	StatusCode int       `json:"-"`
	ErrorCode  ErrorCode `json:"error_code" example:"example_error_code"`
	Message    string    `json:"message" example:"message describing the error"`
	ReqID      string    `json:"-"`
}
