package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var flagSeed string

var rootCmd = &cobra.Command{
	Use:          "tweetwatch",
	Short:        "Watch X for keywords and notify subscribers by direct message",
	Long:         "tweetwatch polls recent X posts for configured keywords and sends each new match to the recipients mapped to that keyword.",
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagSeed, "seed", "", "path to a YAML seed file (overrides SEED_FILE)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(pollOnceCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "tweetwatch %s (commit: %s, built: %s)\n", version, commit, date)
	},
}
