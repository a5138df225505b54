package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/information-sharing-networks/webclient/internal/apiclient"
	"github.com/information-sharing-networks/webclient/internal/config"
	"github.com/information-sharing-networks/webclient/internal/logger"
	"github.com/information-sharing-networks/webclient/internal/server"
	"github.com/information-sharing-networks/webclient/internal/version"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the frontend server",
		Long:  `Run the frontend server. Browser sessions keep their access token in a cookie; requests to /api/* are forwarded to the API with that token.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewConfig()
			if err != nil {
				return err
			}

			appLogger := logger.InitLogger(logger.ParseLogLevel(cfg.LogLevel), cfg.Environment)
			slog.SetDefault(appLogger)

			appLogger.Info("Starting frontend server",
				slog.String("version", version.Get().Version),
				slog.String("environment", cfg.Environment),
			)

			// no token store: the server supplies each browser's cookie store per request
			client := apiclient.NewClient(cfg.APIBaseURL,
				apiclient.WithTimeout(cfg.RequestTimeout),
				apiclient.WithLogger(appLogger),
			)

			srv, err := server.NewServer(cfg, appLogger, client)
			if err != nil {
				appLogger.Error("Failed to create frontend server", slog.String("error", err.Error()))
				return err
			}

			if err := srv.Start(cmd.Context()); err != nil {
				appLogger.Error("frontend server error", slog.String("error", err.Error()))
				return err
			}

			appLogger.Info("frontend server shutdown complete")
			return nil
		},
	}
}
