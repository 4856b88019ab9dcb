package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	root := buildRoot()
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

// buildRoot creates the root command and its subcommands.
func buildRoot() *cobra.Command {
	globalFlags := &GlobalFlags{}
	exportFlags := &ExportFlags{}
	screentimeCommand := command{}

	root := createRootCommand(screentimeCommand, globalFlags, exportFlags)
	root.AddCommand(
		createPathCommand(screentimeCommand),
		createVersionCommand(),
	)
	return root
}

// createRootCommand creates the root command. Running it performs an export.
func createRootCommand(c command, global *GlobalFlags, flags *ExportFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "screentime",
		Short: "Export macOS Screen Time app usage as CSV",
		Long: `Screentime reads app usage events from the macOS Knowledge database
(knowledgeC.db) and writes them as delimited text.

Without --output the full history is printed to stdout. With --output, only
events created since the last run are appended to the file, and the newest
creation time is remembered in <output>.watermark (or in --state-dsn).

Reading knowledgeC.db requires Full Disk Access for the terminal or
application running this tool.

Examples:
  screentime > usage.csv
  screentime -o ~/screentime.csv
  screentime -o ~/screentime.tsv -d '\t'
  screentime -o usage.csv --sink sqlite:///var/db/usage.db`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.Export(cmd, global.ConfigPath)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&global.ConfigPath, "config", "", "path to TOML config file (optional)")
	pf.StringVar(&global.DBPath, "db", "", "path to knowledgeC.db (default: the current user's database)")
	pf.StringVar(&global.LogLevel, "log-level", "warn", "log level: debug, info, warn or error")
	pf.StringVar(&global.LogFile, "log-file", "", "write JSON logs to this rotated file instead of stderr")

	f := root.Flags()
	f.StringVarP(&flags.Output, "output", "o", "", "append new records to this file instead of printing all records")
	f.StringVarP(&flags.Delimiter, "delimiter", "d", ",", `field delimiter, a single character ('\t' for tab)`)
	f.StringVar(&flags.StateDSN, "state-dsn", "", "store watermarks in sqlite or postgres instead of a sidecar file")
	f.StringSliceVar(&flags.Sinks, "sink", nil, "also send records to this DSN (repeatable; sqlite, postgres, clickhouse, opensearch)")
	f.StringVar(&flags.MetricsFile, "metrics-file", "", "write Prometheus metrics to this file after the run")

	return root
}

// createPathCommand creates the path subcommand
func createPathCommand(c command) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the knowledgeC.db path that would be read",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			return c.Path(cmd, configPath)
		},
	}
}

func createVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "screentime %s\n", Version)
			return err
		},
	}
}
