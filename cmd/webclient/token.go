package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/information-sharing-networks/webclient/internal/config"
	"github.com/information-sharing-networks/webclient/internal/tokenstore"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the access token sent with API requests",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "set TOKEN",
			Short: "Store an access token (use - to read it from stdin)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				token := args[0]
				if token == "-" {
					line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
					if err != nil && line == "" {
						return fmt.Errorf("could not read token from stdin: %w", err)
					}
					token = line
				}
				token = strings.TrimSpace(token)
				if token == "" {
					return fmt.Errorf("token cannot be empty")
				}

				store, err := openTokenStore()
				if err != nil {
					return err
				}
				if err := store.Set(tokenstore.AccessTokenKey, token); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "access token saved to %s\n", store.Path())
				return nil
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Print the stored access token",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := openTokenStore()
				if err != nil {
					return err
				}
				token, ok := store.Get(tokenstore.AccessTokenKey)
				if !ok {
					return fmt.Errorf("no access token stored in %s", store.Path())
				}
				fmt.Fprintln(cmd.OutOrStdout(), token)
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove the stored access token",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := openTokenStore()
				if err != nil {
					return err
				}
				return store.Delete(tokenstore.AccessTokenKey)
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Describe the stored access token (the signature is not verified)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := openTokenStore()
				if err != nil {
					return err
				}
				token, _ := store.Get(tokenstore.AccessTokenKey)

				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(tokenstore.Inspect(token, time.Now()))
			},
		},
	)

	return cmd
}

func openTokenStore() (*tokenstore.FileStore, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, err
	}
	return tokenstore.NewFileStore(cfg.TokenFile)
}
