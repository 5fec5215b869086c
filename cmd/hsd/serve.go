package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/addy0032/hate-speech-detection/internal/app"
)

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve [--addr host:port]",
	Short: "Runs the HTTP API and the configured scrape schedule.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}

		paths, err := app.DefaultPaths()
		if err != nil {
			return err
		}
		a, err := app.New(cmd.Context(), cfg, paths, nil, logger)
		if err != nil {
			return err
		}
		serveErr := a.Serve(cmd.Context())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := a.Close(ctx); err != nil {
			logger.Error("shutdown incomplete", "error", err)
		}
		return serveErr
	},
}
