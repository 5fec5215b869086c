package main

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/addy0032/hate-speech-detection/internal/auth"
)

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, sessionsCmd)
}

func authManager() (*auth.Manager, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}
	dir, err := auth.DefaultCookieDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get cookie dir: %w", err)
	}
	return auth.NewManager(dir, cfg.Scraping.LoginTimeout.Duration, logger), nil
}

func siteNames() []string {
	names := make([]string, 0, len(auth.Sites))
	for _, s := range auth.Sites {
		names = append(names, s.Name)
	}
	return names
}

var loginCmd = &cobra.Command{
	Use:       "login <platform>",
	Short:     "Opens a browser for a manual login and stores the session cookies.",
	Args:      cobra.ExactArgs(1),
	ValidArgs: siteNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		site, err := auth.SiteByName(args[0])
		if err != nil {
			return err
		}
		m, err := authManager()
		if err != nil {
			return err
		}
		fmt.Printf("Log in to %s in the browser window. Waiting...\n", site.Name)
		if err := m.Login(cmd.Context(), site); err != nil {
			return err
		}
		fmt.Println("Login successful.")
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:       "logout <platform>",
	Short:     "Removes the stored session cookies of a platform.",
	Args:      cobra.ExactArgs(1),
	ValidArgs: siteNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		site, err := auth.SiteByName(args[0])
		if err != nil {
			return err
		}
		m, err := authManager()
		if err != nil {
			return err
		}
		return m.Logout(site)
	},
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Lists the stored session of every platform.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := authManager()
		if err != nil {
			return err
		}

		t := newTable()
		t.AppendHeader(table.Row{"Platform", "Valid", "Captured", "Expires"})
		for _, site := range auth.Sites {
			row := table.Row{site.Name, m.IsAuthenticated(site), "-", "-"}
			if stored, err := m.Store(site).Load(); err == nil {
				row[2] = stored.CapturedAt.Local().Format(time.DateTime)
				if !stored.ExpiresAt.IsZero() {
					row[3] = stored.ExpiresAt.Local().Format(time.DateTime)
				}
			}
			t.AppendRow(row)
		}
		t.Render()
		return nil
	},
}
