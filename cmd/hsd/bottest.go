package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/chromedp/chromedp"
	"github.com/spf13/cobra"

	"github.com/addy0032/hate-speech-detection/internal/browser"
)

const botTestURL = "https://bot.sannysoft.com"

func init() {
	rootCmd.AddCommand(botTestCmd)
}

// botTestCmd opens a fingerprint audit page with the same launch options
// as the scrape browser
var botTestCmd = &cobra.Command{
	Use:   "bot-test",
	Short: "Opens bot.sannysoft.com with the scraper's browser options to audit its fingerprint.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		logger.Info("opening fingerprint audit page", "url", botTestURL)

		// Never headless so the page can be inspected
		allocCtx, cancel := chromedp.NewExecAllocator(cmd.Context(), browser.Options(false, cfg.Scraping.BlockMedia)...)
		defer cancel()

		ctx, cancel := chromedp.NewContext(allocCtx)
		defer cancel()

		err = chromedp.Run(ctx,
			chromedp.Navigate(botTestURL),
			chromedp.WaitVisible("body", chromedp.ByQuery),
		)
		if err != nil {
			return fmt.Errorf("failed to navigate: %w", err)
		}

		fmt.Println("Press Enter to close the browser...")
		return waitForEnter(cmd.Context())
	},
}

func waitForEnter(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		_, _ = bufio.NewReader(os.Stdin).ReadString('\n')
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return nil
	}
}
