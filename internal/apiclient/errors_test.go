package apiclient

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/information-sharing-networks/webclient/internal/apperrors"
)

func TestNewClientApiError(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantUser      string
		wantLog       string
		wantErrorCode apperrors.ErrorCode
	}{
		{
			name:          "unauthorized",
			status:        http.StatusUnauthorized,
			body:          `{"error_code":"token_invalid","message":"invalid token"}`,
			wantUser:      "Your session has expired or is invalid. Please log in again.",
			wantLog:       "api status 401 - invalid token",
			wantErrorCode: apperrors.ErrCodeTokenInvalid,
		},
		{
			name:     "forbidden",
			status:   http.StatusForbidden,
			wantUser: "You don't have permission to access this resource.",
			wantLog:  "api status 403",
		},
		{
			name:          "bad request uses server message",
			status:        http.StatusBadRequest,
			body:          `{"error_code":"malformed_body","message":"title is required"}`,
			wantUser:      "title is required",
			wantLog:       "api status 400 - title is required",
			wantErrorCode: apperrors.ErrCodeMalformedBody,
		},
		{
			name:     "bad request without body",
			status:   http.StatusBadRequest,
			wantUser: "Invalid request. Please check your input and try again.",
			wantLog:  "api status 400",
		},
		{
			name:     "non json body",
			status:   http.StatusBadGateway,
			body:     `<html>bad gateway</html>`,
			wantUser: "The service is temporarily unavailable. Please try again later.",
			wantLog:  "api status 502",
		},
		{
			name:     "too many requests",
			status:   http.StatusTooManyRequests,
			wantUser: "Too many requests. Please try again in a few moments.",
			wantLog:  "api status 429",
		},
		{
			name:     "unmapped status",
			status:   http.StatusConflict,
			wantUser: "An error occurred. Please try again.",
			wantLog:  "api status 409",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "http://api.example.com/users", nil)
			res := &http.Response{
				StatusCode: tt.status,
				Header:     http.Header{"Content-Type": []string{"application/json"}},
				Body:       io.NopCloser(strings.NewReader(tt.body)),
				Request:    req,
			}

			clientErr := NewClientApiError(res)

			assert.Equal(t, tt.status, clientErr.StatusCode)
			assert.Equal(t, tt.wantUser, clientErr.UserError())
			assert.Equal(t, tt.wantLog, clientErr.Error())
			assert.Equal(t, tt.wantErrorCode, clientErr.ErrorCode)
			assert.Equal(t, tt.body, string(clientErr.Body))
			assert.Equal(t, "http://api.example.com/users", clientErr.URL)
			assert.Equal(t, http.MethodGet, clientErr.Method)
		})
	}
}

func TestNewClientInternalError(t *testing.T) {
	cause := errors.New("boom")
	clientErr := NewClientInternalError(cause, "marshaling request")

	assert.Equal(t, 0, clientErr.StatusCode)
	assert.Equal(t, "internal error: boom while marshaling request", clientErr.Error())
	assert.ErrorIs(t, clientErr, cause)
}

func TestIsStatus(t *testing.T) {
	err := error(&ClientError{StatusCode: http.StatusUnauthorized})

	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.False(t, IsStatus(err, http.StatusInternalServerError))
	assert.False(t, IsStatus(errors.New("plain"), http.StatusUnauthorized))
}
