// Command hsd scrapes social media comments, labels them for hate speech
// and serves the results to the dashboard.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/addy0032/hate-speech-detection/internal/config"
	"github.com/addy0032/hate-speech-detection/internal/logging"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:           "hsd",
	Short:         "hsd scrapes comments and labels them for hate speech and sarcasm.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.toml (default: user config dir)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file, creating a default one on first run,
// then fills credentials from .env and the environment
func loadConfig() (*config.Config, *slog.Logger, error) {
	// A missing .env is normal
	_ = godotenv.Load()

	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
		if errors.Is(err, os.ErrNotExist) {
			cfg, err = config.Default(), nil
			if saveErr := cfg.Save(); saveErr != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not save default config: %v\n", saveErr)
			} else if path, pathErr := config.ConfigPath(); pathErr == nil {
				fmt.Fprintf(os.Stderr, "Created default config at: %s\n", path)
			}
		}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.ApplyEnv()

	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	logger := logging.New(os.Stderr, level, cfg.Log.Format)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}
