package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	listKeyword  string
	listLocation string
	listLimit    int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored jobs",
	Long:  "Prints stored active jobs, optionally filtered by keyword and location.",
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVarP(&listKeyword, "keyword", "k", "", "filter on title, company, or description")
	listCmd.Flags().StringVarP(&listLocation, "location", "l", "", "filter on location")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 20, "maximum rows to print")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
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

	jobs, err := sqlStore.QueryJobs(context.Background(), listKeyword, listLocation, listLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "query failed: %v\n", err)
		os.Exit(1)
	}

	if len(jobs) == 0 {
		fmt.Println("No jobs found.")
		return nil
	}

	fmt.Printf("%-6s %-40s %-25s %-20s %s\n", "ID", "Title", "Company", "Location", "Posted")
	fmt.Println(strings.Repeat("─", 105))
	for _, j := range jobs {
		posted := "n/a"
		if j.PostedAt != nil {
			posted = j.PostedAt.Format("2006-01-02")
		}
		fmt.Printf("%-6d %-40s %-25s %-20s %s\n",
			j.ID, truncate(j.Title, 40), truncate(j.Company, 25), truncate(j.Location, 20), posted)
		if sal := formatSalaryRange(j); sal != "" {
			fmt.Printf("       %s\n", sal)
		}
	}
	fmt.Printf("\nTotal: %d jobs\n", len(jobs))
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
