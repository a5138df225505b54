package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI executes the root command and returns stdout and stderr
func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer

	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func setupEnv(t *testing.T, apiURL string) string {
	t.Helper()
	tokenFile := filepath.Join(t.TempDir(), "tokens.json")
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("TOKEN_FILE", tokenFile)
	t.Setenv("API_BASE_URL", apiURL)
	return tokenFile
}

func TestParseRequestArgs(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantMethod string
		wantPath   string
	}{
		{name: "path only", args: []string{"/isn"}, wantMethod: http.MethodGet, wantPath: "/isn"},
		{name: "method and path", args: []string{"post", "/isn"}, wantMethod: http.MethodPost, wantPath: "/isn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method, path := parseRequestArgs(tt.args)
			assert.Equal(t, tt.wantMethod, method)
			assert.Equal(t, tt.wantPath, path)
		})
	}
}

func TestWriteBody(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		highlight   bool
		wantRaw     bool
	}{
		{name: "no highlight", body: `{"a":1}`, contentType: "application/json", wantRaw: true},
		{name: "not json", body: "plain text", contentType: "text/plain", highlight: true, wantRaw: true},
		{name: "invalid json", body: `{"a":`, contentType: "application/json", highlight: true, wantRaw: true},
		{name: "json highlighted", body: `{"a":1}`, contentType: "application/json; charset=utf-8", highlight: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			require.NoError(t, writeBody(&out, []byte(tt.body), tt.contentType, tt.highlight))

			if tt.wantRaw {
				assert.Equal(t, tt.body, out.String())
				return
			}
			assert.Contains(t, out.String(), "\x1b[")
			assert.NotEqual(t, tt.body, out.String())
		})
	}
}

func TestTokenCommands(t *testing.T) {
	setupEnv(t, "http://localhost:8000/api/v1")

	_, _, err := runCLI(t, "", "token", "show")
	assert.Error(t, err, "show with no stored token")

	stdout, _, err := runCLI(t, "", "token", "status")
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"TokenMissing"}`, stdout)

	_, stderr, err := runCLI(t, "", "token", "set", "token123")
	require.NoError(t, err)
	assert.Contains(t, stderr, "access token saved")

	stdout, _, err = runCLI(t, "", "token", "show")
	require.NoError(t, err)
	assert.Equal(t, "token123\n", stdout)

	stdout, _, err = runCLI(t, "", "token", "status")
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"TokenOpaque"}`, stdout)

	_, _, err = runCLI(t, "", "token", "clear")
	require.NoError(t, err)

	_, _, err = runCLI(t, "", "token", "show")
	assert.Error(t, err)
}

func TestTokenSetFromStdin(t *testing.T) {
	setupEnv(t, "http://localhost:8000/api/v1")

	_, _, err := runCLI(t, "  piped-token\n", "token", "set", "-")
	require.NoError(t, err)

	stdout, _, err := runCLI(t, "", "token", "show")
	require.NoError(t, err)
	assert.Equal(t, "piped-token\n", stdout)

	_, _, err = runCLI(t, "\n", "token", "set", "-")
	assert.Error(t, err)
}

func TestRequestCommand(t *testing.T) {
	var gotAuth, gotMethod, gotPath, gotBody, gotUserAgent string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotUserAgent = r.Header.Get("User-Agent")
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r.Body)
		gotBody = buf.String()

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"slug": "sample-isn"})
	}))
	defer api.Close()

	setupEnv(t, api.URL+"/api/v1")

	_, _, err := runCLI(t, "", "token", "set", "token123")
	require.NoError(t, err)

	stdout, _, err := runCLI(t, "", "request", "post", "/isn", "--data", `{"title":"Sample"}`)
	require.NoError(t, err)

	assert.JSONEq(t, `{"slug":"sample-isn"}`, stdout)
	assert.Equal(t, "Bearer token123", gotAuth)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/api/v1/isn", gotPath)
	assert.Equal(t, `{"title":"Sample"}`, gotBody)
	assert.True(t, strings.HasPrefix(gotUserAgent, "webclient/"))
}

func TestRequestCommandRejectsInvalidData(t *testing.T) {
	setupEnv(t, "http://localhost:8000/api/v1")

	_, _, err := runCLI(t, "", "request", "POST", "/isn", "--data", `{`)
	assert.ErrorContains(t, err, "not valid JSON")
}

func TestRequestCommandUnauthorized(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error_code":"access_token_expired","message":"token expired"}`))
	}))
	defer api.Close()

	setupEnv(t, api.URL)

	stdout, stderr, err := runCLI(t, "", "request", "/users")
	require.Error(t, err)
	assert.Contains(t, stdout, "access_token_expired")
	assert.Contains(t, stderr, "webclient token set")
}
