package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/spf13/cobra"

	"github.com/information-sharing-networks/webclient/internal/apiclient"
	"github.com/information-sharing-networks/webclient/internal/config"
	"github.com/information-sharing-networks/webclient/internal/logger"
	"github.com/information-sharing-networks/webclient/internal/tokenstore"
	"github.com/information-sharing-networks/webclient/internal/version"
)

func newRequestCmd() *cobra.Command {
	var (
		data      string
		highlight bool
	)

	cmd := &cobra.Command{
		Use:   "request [METHOD] PATH",
		Short: "Send a request to the API using the stored access token",
		Example: `  webclient request /isn
  webclient request POST /isn --data '{"title":"Sample ISN"}'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			method, path := parseRequestArgs(args)

			cfg, err := config.NewConfig()
			if err != nil {
				return err
			}

			store, err := tokenstore.NewFileStore(cfg.TokenFile)
			if err != nil {
				return err
			}

			client := newCLIClient(cmd, cfg, store)

			var body io.Reader
			if data != "" {
				if !json.Valid([]byte(data)) {
					return fmt.Errorf("--data is not valid JSON")
				}
				body = strings.NewReader(data)
			}

			req, err := client.NewRequest(cmd.Context(), method, path, body)
			if err != nil {
				return err
			}
			if body != nil {
				req.Header.Set("Content-Type", "application/json")
			}

			res, err := client.Do(cmd.Context(), req)
			if err != nil {
				var clientErr *apiclient.ClientError
				if errors.As(err, &clientErr) && len(clientErr.Body) > 0 {
					_ = writeBody(cmd.OutOrStdout(), clientErr.Body, clientErr.Header.Get("Content-Type"), highlight)
				}
				return err
			}
			defer res.Body.Close()

			resBody, err := io.ReadAll(res.Body)
			if err != nil {
				return fmt.Errorf("could not read response body: %w", err)
			}
			return writeBody(cmd.OutOrStdout(), resBody, res.Header.Get("Content-Type"), highlight)
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON request body")
	cmd.Flags().BoolVar(&highlight, "highlight", false, "pretty print and colourise JSON responses")

	return cmd
}

// parseRequestArgs accepts "PATH" or "METHOD PATH"
func parseRequestArgs(args []string) (method, path string) {
	if len(args) == 1 {
		return http.MethodGet, args[0]
	}
	return strings.ToUpper(args[0]), args[1]
}

func newCLIClient(cmd *cobra.Command, cfg *config.Config, store tokenstore.Store) *apiclient.Client {
	level := slog.LevelWarn
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	log := logger.NewTextLogger(cmd.ErrOrStderr(), level)
	stderr := cmd.ErrOrStderr()

	return apiclient.NewClient(cfg.APIBaseURL,
		apiclient.WithTimeout(cfg.RequestTimeout),
		apiclient.WithTokenStore(store),
		apiclient.WithLogger(log),
		apiclient.WithUnauthorizedHandler(func(err *apiclient.ClientError) {
			fmt.Fprintf(stderr, "%s\nrun 'webclient token set <token>' to log in again\n", err.UserError())
		}),
		apiclient.WithRequestInterceptor(func(req *http.Request) error {
			req.Header.Set("User-Agent", version.Get().UserAgent())
			return nil
		}),
	)
}

// writeBody prints a response body. With highlight set, JSON bodies are indented and colourised.
func writeBody(w io.Writer, body []byte, contentType string, highlight bool) error {
	if !highlight || !strings.Contains(contentType, "json") {
		_, err := w.Write(body)
		return err
	}

	var indented bytes.Buffer
	if err := json.Indent(&indented, body, "", "  "); err != nil {
		_, err := w.Write(body)
		return err
	}
	indented.WriteString("\n")

	return quick.Highlight(w, indented.String(), "json", "terminal256", "monokai")
}
