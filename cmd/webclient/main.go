package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	_ "golang.org/x/crypto/x509roots/fallback" // CA roots for distroless images

	"github.com/information-sharing-networks/webclient/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "webclient",
		Short:        "HTTP client for the signalsd API",
		Long:         `Send authenticated requests to the API, manage the stored access token and run the frontend server.`,
		SilenceUsage: true,
	}

	cmd.Version = version.Get().String()
	cmd.PersistentFlags().BoolP("verbose", "v", false, "log request details to stderr")

	cmd.AddCommand(newRequestCmd(), newTokenCmd(), newServeCmd())
	return cmd
}
