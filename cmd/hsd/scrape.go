package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/addy0032/hate-speech-detection/internal/app"
	"github.com/addy0032/hate-speech-detection/internal/platform"
	"github.com/addy0032/hate-speech-detection/internal/task"
	"github.com/addy0032/hate-speech-detection/internal/types"
)

var (
	scrapeDays    int
	scrapeYouTube bool
	scrapeCSV     string
)

func init() {
	scrapeCmd.Flags().IntVar(&scrapeDays, "days", 0, "Only keep feed items younger than this many days (default: scraping.window_days)")
	scrapeCmd.Flags().BoolVar(&scrapeYouTube, "youtube", false, "Treat the first argument as a YouTube channel")
	scrapeCmd.Flags().StringVar(&scrapeCSV, "csv", "", "Also write the task's comments to this CSV file")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--days N] [--youtube] [--csv out.csv] <url>...",
	Short: "Runs one scrape task in the foreground and prints its results.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		paths, err := app.DefaultPaths()
		if err != nil {
			return err
		}
		a, err := app.New(cmd.Context(), cfg, paths, nil, logger)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := a.Close(ctx); err != nil {
				logger.Error("shutdown incomplete", "error", err)
			}
		}()

		sources := args
		if scrapeYouTube {
			sources = []string{platform.YouTubeChannel(args[0])}
		}

		snap, err := a.Scrape(cmd.Context(), sources, scrapeDays)
		if snap.ID != "" {
			printSnapshot(snap)
		}
		if err != nil {
			return err
		}
		if snap.Status == task.StatusFailed {
			return fmt.Errorf("task failed: %s", snap.Error)
		}

		if scrapeCSV != "" {
			if err := writeCSVFile(scrapeCSV, task.Rows(snap)); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", scrapeCSV)
		}
		return nil
	},
}

func printSnapshot(snap task.Snapshot) {
	for _, p := range snap.Progress {
		fmt.Println(p)
	}

	t := newTable()
	t.SetTitle(fmt.Sprintf("Task %s: %s", snap.ID, snap.Status))
	t.AppendHeader(table.Row{"Post URL", "Comments", "Hate", "Sarcasm", "Safe", "Other"})

	var total [4]int
	for _, r := range snap.Results {
		var counts [4]int
		for _, c := range r.Comments {
			switch c.Label {
			case types.LabelHate:
				counts[0]++
			case types.LabelSarcasm:
				counts[1]++
			case types.LabelSafe:
				counts[2]++
			default:
				counts[3]++
			}
		}
		for i := range counts {
			total[i] += counts[i]
		}
		t.AppendRow(table.Row{r.ItemURL, len(r.Comments), counts[0], counts[1], counts[2], counts[3]})
	}
	t.AppendFooter(table.Row{"Total", snap.CommentCount(), total[0], total[1], total[2], total[3]})
	t.Render()
}

func writeCSVFile(path string, rows []task.ExportRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := task.WriteCSV(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
