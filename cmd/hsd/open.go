package main

import (
	"fmt"
	"path/filepath"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/addy0032/hate-speech-detection/internal/config"
)

func init() {
	rootCmd.AddCommand(openCmd)
}

var openCmd = &cobra.Command{
	Use:       "open <config|cache|store>",
	Short:     "Opens the config file, the cache directory or the comment store.",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"config", "cache", "store"},
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			path string
			err  error
		)
		switch args[0] {
		case "config":
			path = configPath
			if path == "" {
				path, err = config.ConfigPath()
			}
		case "cache":
			path, err = config.CacheDir()
		case "store":
			var cfg *config.Config
			if cfg, _, err = loadConfig(); err == nil {
				path, err = filepath.Abs(cfg.Store.Path)
			}
		default:
			return fmt.Errorf("unknown target: %s", args[0])
		}
		if err != nil {
			return fmt.Errorf("failed to get path: %w", err)
		}

		if err := browser.OpenFile(path); err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		return nil
	},
}
