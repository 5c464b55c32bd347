package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print pgidx version and supported PostgreSQL versions",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pgidx %s (commit: %s, built: %s)\n\n", Version, CommitSHA, BuildDate)
		fmt.Println("Supported PostgreSQL versions:")
		fmt.Println("  • PostgreSQL 12 – 17, with the HypoPG extension installed")
		fmt.Println("  • pg_stat_statements optional (needed for --pg-stat-statements)")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
