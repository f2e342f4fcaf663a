package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/reoring/schemaforge/extract"
	"github.com/reoring/schemaforge/internal/server"
	"github.com/reoring/schemaforge/provider/openai"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			log := cfg.Logger(os.Stderr)
			provider := openai.New(cfg.ProviderBaseURL, openai.WithTimeout(cfg.ProviderTimeout))
			client := extract.New(provider, extract.WithLogger(log))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.New(cfg, client, log).Run(ctx)
		},
	}
}
