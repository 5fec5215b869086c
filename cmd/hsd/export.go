package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/addy0032/hate-speech-detection/internal/app"
	"github.com/addy0032/hate-speech-detection/internal/store"
	"github.com/addy0032/hate-speech-detection/internal/task"
)

var exportOut string

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "CSV file to write (default: stdout)")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export [-o comments.csv]",
	Short: "Writes every stored comment as CSV.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		backend, err := app.OpenBackend(cfg.Store)
		if err != nil {
			return err
		}
		st, err := store.Open(cmd.Context(), backend, logger)
		if err != nil {
			backend.Close()
			return err
		}
		defer st.Close()

		m := task.NewManager(nil, st, nil, nil, task.Options{}, logger)
		defer m.Shutdown(context.Background())

		if _, err := m.LoadExisting(); err != nil {
			return err
		}
		rows, err := m.Export(task.ExistingDataID)
		if err != nil {
			return err
		}

		if exportOut == "" {
			return task.WriteCSV(os.Stdout, rows)
		}
		if err := writeCSVFile(exportOut, rows); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote %d comments to %s\n", len(rows), exportOut)
		return nil
	},
}
