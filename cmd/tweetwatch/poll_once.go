package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tweetwatch/internal/jobs"
)

var pollOnceCmd = &cobra.Command{
	Use:   "poll-once",
	Short: "Refresh the keyword index, run a single poll cycle and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := jobs.RunOnce(cmd.Context(), a.monitor, a.index)
		if err != nil {
			return fmt.Errorf("poll cycle: %w", err)
		}

		out := cmd.OutOrStdout()
		if report.Skipped {
			fmt.Fprintln(out, "No active keywords; nothing to poll.")
			return nil
		}
		fmt.Fprintf(out, "Watermark %d -> %d: fetched %d, matched %d, claimed %d.\n",
			report.WatermarkBefore, report.WatermarkAfter, report.Fetched, report.Matched, report.Claimed)
		fmt.Fprintf(out, "Notifications: %d sent, %d simulated, %d failed, %d skipped.\n",
			report.Delivery.Sent, report.Delivery.Simulated, report.Delivery.Failed, report.Delivery.Skipped)
		return nil
	},
}
