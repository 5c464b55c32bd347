package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nethalo/pgidx/internal/advisor"
	"github.com/nethalo/pgidx/internal/output"
	"github.com/nethalo/pgidx/internal/pg"
	"github.com/nethalo/pgidx/internal/source"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "pgidx [file ...]",
	Short: "Automatic index advisor for PostgreSQL",
	Long: `pgidx watches your workload and proposes B-tree indexes that pay off.

It fingerprints the queries it sees (tailed from the slow-query log on stdin,
pulled from pg_stat_statements, or read from files), creates hypothetical
indexes with the HypoPG extension, re-plans each query against them, and keeps
only the candidates that cut planner cost in half. With --create it builds the
winners concurrently, serialized across instances by an advisory lock.`,
	SilenceUsage: true,
	Args:         cobra.ArbitraryArgs,
}

// Execute is called by main.main(). It runs the root command and exits with
// status 1 if the command returns an error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runAdvisor(args)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pgidx/config.yaml)")
	rootCmd.PersistentFlags().String("host", "", "database host")
	rootCmd.PersistentFlags().IntP("port", "p", 5432, "database port")
	rootCmd.PersistentFlags().StringP("dbname", "d", "", "database name, URI, or key=value connection string")
	rootCmd.PersistentFlags().StringP("user", "U", "", "database user")
	rootCmd.PersistentFlags().BoolP("password", "W", false, "prompt for the database password")
	rootCmd.PersistentFlags().String("log-level", "info", "verbosity: info, debug, debug2, debug3, error")
	rootCmd.PersistentFlags().Bool("log-sql", false, "echo every SQL statement issued")
	rootCmd.PersistentFlags().StringP("format", "f", "text", "suggestion summary format: text, plain, json, table")

	rootCmd.Flags().StringP("statement", "s", "", "evaluate this single statement, then exit")
	rootCmd.Flags().Bool("create", false, "create the suggested indexes")
	rootCmd.Flags().Int("interval", 60, "batch cadence in seconds on a streaming source")
	rootCmd.Flags().Float64("min-time", 0, "minimum accumulated query time in minutes")
	rootCmd.Flags().StringSlice("exclude", nil, "tables never to index")
	rootCmd.Flags().StringSlice("include", nil, "if set, restrict suggestions to these tables")
	rootCmd.Flags().Bool("pg-stat-statements", false, "read the workload from pg_stat_statements instead of stdin")

	viper.BindPFlag("host", rootCmd.PersistentFlags().Lookup("host"))
	viper.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))
	viper.BindPFlag("dbname", rootCmd.PersistentFlags().Lookup("dbname"))
	viper.BindPFlag("user", rootCmd.PersistentFlags().Lookup("user"))
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log-sql", rootCmd.PersistentFlags().Lookup("log-sql"))
	viper.BindPFlag("format", rootCmd.PersistentFlags().Lookup("format"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return
		}
		viper.AddConfigPath(home + "/.pgidx")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("PGIDX")
	viper.AutomaticEnv()

	// Silently ignore missing config file — it's optional
	if err := viper.ReadInConfig(); err == nil {
		// Map nested config structure to flat keys that flags expect
		// Only set these if the flags haven't been explicitly set by the user
		if !rootCmd.PersistentFlags().Changed("host") && viper.IsSet("connections.default.host") {
			viper.Set("host", viper.GetString("connections.default.host"))
		}
		if !rootCmd.PersistentFlags().Changed("port") && viper.IsSet("connections.default.port") {
			viper.Set("port", viper.GetInt("connections.default.port"))
		}
		if !rootCmd.PersistentFlags().Changed("user") && viper.IsSet("connections.default.user") {
			viper.Set("user", viper.GetString("connections.default.user"))
		}
		if !rootCmd.PersistentFlags().Changed("dbname") && viper.IsSet("connections.default.dbname") {
			viper.Set("dbname", viper.GetString("connections.default.dbname"))
		}
		if !rootCmd.PersistentFlags().Changed("format") && viper.IsSet("defaults.format") {
			viper.Set("format", viper.GetString("defaults.format"))
		}
	}
}

// connectionConfig assembles the connection parameters from flags, config
// file, and environment, prompting for a password when -W is given.
func connectionConfig(prompt bool) pg.ConnectionConfig {
	cfg := pg.ConnectionConfig{
		Host:   viper.GetString("host"),
		Port:   viper.GetInt("port"),
		User:   viper.GetString("user"),
		Target: pg.ParseTarget(viper.GetString("dbname")),
		LogSQL: viper.GetBool("log-sql"),
	}
	if prompt {
		cfg.Password = pg.PromptPassword()
	}
	return cfg
}

func runAdvisor(files []string) error {
	level, err := output.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		return err
	}
	log := output.NewLogger(os.Stdout, level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	prompt, _ := rootCmd.PersistentFlags().GetBool("password")
	conn, err := pg.Connect(ctx, connectionConfig(prompt), log)
	if err != nil {
		return err
	}
	defer conn.Close(context.Background())

	caps, err := pg.DetectCapabilities(ctx, conn)
	if err != nil {
		return err
	}

	intervalSecs, _ := rootCmd.Flags().GetInt("interval")
	interval := time.Duration(intervalSecs) * time.Second
	minTime, _ := rootCmd.Flags().GetFloat64("min-time")
	statement, _ := rootCmd.Flags().GetString("statement")
	useStats, _ := rootCmd.Flags().GetBool("pg-stat-statements")
	create, _ := rootCmd.Flags().GetBool("create")
	include, _ := rootCmd.Flags().GetStringSlice("include")
	exclude, _ := rootCmd.Flags().GetStringSlice("exclude")

	var src source.Source
	switch {
	case statement != "":
		src = source.NewStatement(statement)
	case len(files) > 0:
		src = source.NewFiles(files)
	case useStats:
		src, err = source.NewStats(conn, caps, minTime, interval)
		if err != nil {
			return err
		}
	default:
		src = source.NewLogStream(os.Stdin, interval, minTime)
	}

	adv := advisor.New(conn, pg.NewCatalog(conn), pg.NewHypo(conn), log, advisor.Options{
		Include: include,
		Exclude: exclude,
	})
	renderer := output.NewRenderer(viper.GetString("format"), os.Stdout)

	for {
		batch, err := src.NextBatch(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		suggestions, err := adv.Evaluate(ctx, batch)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		renderer.RenderSuggestions(suggestions)

		if create && len(suggestions) > 0 {
			if err := adv.Apply(ctx, suggestions); err != nil {
				return err
			}
		}
	}
}
