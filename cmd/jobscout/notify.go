package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"jobscout/internal/notify"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Notification subcommands",
}

var notifyTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a test notification",
	Long:  "Sends a synthetic job alert over every configured channel and reports per-channel results.",
	RunE:  runNotifyTest,
}

func init() {
	rootCmd.AddCommand(notifyCmd)
	notifyCmd.AddCommand(notifyTestCmd)
}

func runNotifyTest(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	dispatcher := buildDispatcher(cfg, logger)
	results := notify.SendTest(context.Background(), dispatcher)

	failed := 0
	for channel, ok := range results {
		if ok {
			logger.Info("test notification sent", "channel", channel)
		} else {
			logger.Error("test notification failed", "channel", channel)
			failed++
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
	return nil
}
