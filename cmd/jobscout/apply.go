package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var applyNotes string

var applyCmd = &cobra.Command{
	Use:   "apply <job-id>",
	Short: "Mark a stored job as applied",
	Args:  cobra.ExactArgs(1),
	RunE:  runApply,
}

func init() {
	applyCmd.Flags().StringVar(&applyNotes, "notes", "", "free-form notes to attach")
	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	jobID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid job id %q\n", args[0])
		os.Exit(1)
	}

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

	ctx := context.Background()
	if _, err := sqlStore.TrackApplication(ctx, jobID, applyNotes); err != nil {
		fmt.Fprintf(os.Stderr, "tracking application failed: %v\n", err)
		os.Exit(1)
	}

	job, err := sqlStore.GetJob(ctx, jobID)
	if err == nil && job != nil {
		fmt.Printf("Tracked application for %q at %s (job %d)\n", job.Title, job.Company, jobID)
	} else {
		fmt.Printf("Tracked application for job %d\n", jobID)
	}
	return nil
}
