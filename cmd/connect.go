package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nethalo/pgidx/internal/output"
	"github.com/nethalo/pgidx/internal/pg"
)

var connectCmd = &cobra.Command{
	Use:          "connect",
	Short:        "Test connection and show server capabilities",
	SilenceUsage: true,
	Long:         `Connect to a PostgreSQL instance, verify HypoPG is available, and report whether pg_stat_statements can serve as a workload source.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := output.ParseLevel(viper.GetString("log-level"))
		if err != nil {
			return err
		}
		log := output.NewLogger(os.Stdout, level)

		ctx := context.Background()
		prompt, _ := rootCmd.PersistentFlags().GetBool("password")
		conn, err := pg.Connect(ctx, connectionConfig(prompt), log)
		if err != nil {
			return err
		}
		defer conn.Close(ctx)

		caps, err := pg.DetectCapabilities(ctx, conn)
		if err != nil {
			return err
		}

		fmt.Printf("Server version:     %s\n", caps.Version)
		fmt.Println("HypoPG:             available")
		if caps.HasStatStatements {
			fmt.Printf("pg_stat_statements: available (%s)\n", caps.StatsTimeColumn)
		} else {
			fmt.Println("pg_stat_statements: not installed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(connectCmd)
}
