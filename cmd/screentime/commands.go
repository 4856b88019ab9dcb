package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/fatih/color"
	"github.com/loykin/screentime"
	"github.com/loykin/screentime/internal/config"
	"github.com/loykin/screentime/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// registry holds only the export collectors so the textfile carries no Go
// runtime metrics that would clash with node_exporter's own.
var registry = prometheus.NewRegistry()

const fullDiskAccessHint = "grant Full Disk Access to the application running this tool (e.g. Terminal, iTerm, VS Code)"

type command struct{}

// Export loads configuration, runs one export and writes metrics if asked to.
func (c *command) Export(cmd *cobra.Command, configPath string) error {
	cfg, err := loadConfig(cmd, configPath)
	if err != nil {
		return err
	}
	closer, err := logger.Setup(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	if cfg.MetricsFile != "" {
		if err := screentime.RegisterMetrics(registry); err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
	}

	_, err = screentime.Export(cmd.Context(), screentime.Options{
		DBPath:    cfg.DBPath,
		Output:    cfg.Output,
		Delimiter: cfg.Delimiter,
		StateDSN:  cfg.StateDSN,
		Sinks:     cfg.Sinks,
		Stdout:    cmd.OutOrStdout(),
	})

	if cfg.MetricsFile != "" {
		if merr := screentime.WriteMetrics(cfg.MetricsFile, registry); merr != nil {
			slog.Warn("Failed to write metrics", "path", cfg.MetricsFile, "error", merr)
		}
	}
	return err
}

// Path prints the database path an export would read.
func (c *command) Path(cmd *cobra.Command, configPath string) error {
	cfg, err := loadConfig(cmd, configPath)
	if err != nil {
		return err
	}
	p := cfg.DBPath
	if p == "" {
		p = screentime.DefaultDBPath()
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), p)
	return err
}

func loadConfig(cmd *cobra.Command, configPath string) (*config.Config, error) {
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// reportError prints err to w, with a remedy for the errors users can fix.
func reportError(w io.Writer, err error) {
	red := color.New(color.FgRed, color.Bold)
	_, _ = red.Fprint(w, "Error: ")
	_, _ = fmt.Fprintln(w, err)

	hint := ""
	switch {
	case errors.Is(err, screentime.ErrPermissionDenied):
		hint = fullDiskAccessHint
	case errors.Is(err, screentime.ErrNotFound):
		hint = "this tool only works on macOS; pass --db to read a copied knowledgeC.db"
	case errors.Is(err, screentime.ErrMalformed):
		hint = "fix or delete the watermark file to continue"
	}
	if hint != "" {
		_, _ = color.New(color.FgYellow).Fprintln(w, "Hint: "+hint)
	}
}
