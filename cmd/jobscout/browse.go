package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"jobscout/internal/browse"
)

var browseLimit int

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse stored jobs interactively (TUI)",
	Long:  "Opens a terminal UI over stored jobs with a detail view and an apply shortcut.",
	RunE:  runBrowse,
}

func init() {
	browseCmd.Flags().IntVarP(&browseLimit, "limit", "n", 200, "maximum jobs to load")
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	sqlStore, err := openStore(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer sqlStore.Close()

	jobs, err := sqlStore.QueryJobs(context.Background(), "", "", browseLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading jobs failed: %v\n", err)
		os.Exit(1)
	}
	if len(jobs) == 0 {
		fmt.Println("No jobs stored yet. Run `jobscout scrape` first.")
		return nil
	}

	if err := browse.Run(jobs, sqlStore); err != nil {
		fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
		os.Exit(1)
	}
	return nil
}
