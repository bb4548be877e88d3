package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var applicationsStatus string

var applicationsCmd = &cobra.Command{
	Use:   "applications",
	Short: "List tracked applications",
	RunE:  runApplications,
}

func init() {
	applicationsCmd.Flags().StringVar(&applicationsStatus, "status", "", "filter by status (e.g. applied)")
	rootCmd.AddCommand(applicationsCmd)
}

func runApplications(cmd *cobra.Command, args []string) error {
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

	apps, err := sqlStore.Applications(context.Background(), applicationsStatus)
	if err != nil {
		fmt.Fprintf(os.Stderr, "query failed: %v\n", err)
		os.Exit(1)
	}

	if len(apps) == 0 {
		fmt.Println("No applications tracked.")
		return nil
	}

	fmt.Printf("%-6s %-40s %-25s %-10s %s\n", "Job", "Title", "Company", "Status", "Applied")
	fmt.Println(strings.Repeat("─", 95))
	for _, a := range apps {
		fmt.Printf("%-6d %-40s %-25s %-10s %s\n",
			a.JobID, truncate(a.Title, 40), truncate(a.Company, 25), a.Status, a.AppliedAt.Format("2006-01-02"))
		if a.Notes != "" {
			fmt.Printf("       %s\n", a.Notes)
		}
	}
	fmt.Printf("\nTotal: %d applications\n", len(apps))
	return nil
}
