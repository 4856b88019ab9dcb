// Package screentime exports macOS Screen Time app usage from knowledgeC.db
// as delimited text.
package screentime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/loykin/screentime/internal/export"
	"github.com/loykin/screentime/internal/knowledge"
	"github.com/loykin/screentime/internal/metrics"
	"github.com/loykin/screentime/internal/sink"
	sinkfactory "github.com/loykin/screentime/internal/sink/factory"
	"github.com/loykin/screentime/internal/watermark"
	wmfactory "github.com/loykin/screentime/internal/watermark/factory"
	"github.com/prometheus/client_golang/prometheus"
)

// Re-export core types for external consumers.

type UsageRecord = knowledge.UsageRecord

type Result = export.Result

type Watermark = watermark.Watermark

var (
	ErrNotFound         = knowledge.ErrNotFound
	ErrPermissionDenied = knowledge.ErrPermissionDenied
	ErrMalformed        = watermark.ErrMalformed
	ErrInvalidDelimiter = export.ErrInvalidDelimiter
)

// Options configures a single export run.
type Options struct {
	// DBPath defaults to DefaultDBPath().
	DBPath string
	// Output is the file to append to. Empty writes a full export to Stdout.
	Output string
	// Delimiter is a single character; `\t` means tab. Empty means comma.
	Delimiter string
	// StateDSN selects where file-mode watermarks live. Empty uses a sidecar
	// file next to Output.
	StateDSN string
	// Sinks are DSNs of stores that receive a copy of every exported record.
	Sinks []string
	// Stdout defaults to os.Stdout.
	Stdout io.Writer
}

func DefaultDBPath() string { return knowledge.DefaultDBPath() }

// Export runs one export with opts, opening and closing every resource it
// needs.
func Export(ctx context.Context, opts Options) (Result, error) {
	comma, err := export.ParseDelimiter(opts.Delimiter)
	if err != nil {
		return Result{}, err
	}

	path := opts.DBPath
	if path == "" {
		path = knowledge.DefaultDBPath()
	}
	if err := knowledge.Validate(path); err != nil {
		return Result{}, err
	}
	slog.Debug("Using knowledge database", "path", path)

	src, err := knowledge.Open(path)
	if err != nil {
		return Result{}, err
	}
	defer closeQuietly("knowledge database", src)

	sinks, err := openSinks(opts.Sinks)
	defer func() {
		for _, s := range sinks {
			if c, ok := s.(io.Closer); ok {
				closeQuietly(s.Kind()+" sink", c)
			}
		}
	}()
	if err != nil {
		return Result{}, err
	}

	eopts := []export.Option{export.WithDelimiter(comma), export.WithSinks(sinks...)}

	if opts.Output == "" {
		w := opts.Stdout
		if w == nil {
			w = os.Stdout
		}
		return export.New(src, eopts...).ExportStream(ctx, w)
	}

	marks, err := wmfactory.NewFromDSN(ctx, opts.StateDSN)
	if err != nil {
		return Result{}, fmt.Errorf("open watermark store: %w", err)
	}
	defer closeQuietly("watermark store", marks)

	eopts = append(eopts, export.WithWatermarks(marks))
	return export.New(src, eopts...).ExportFile(ctx, opts.Output)
}

func openSinks(dsns []string) ([]sink.Sink, error) {
	var sinks []sink.Sink
	for _, dsn := range dsns {
		s, err := sinkfactory.NewSinkFromDSN(dsn)
		if err != nil {
			return sinks, fmt.Errorf("open sink: %w", err)
		}
		sinks = append(sinks, s)
	}
	return sinks, nil
}

func closeQuietly(what string, c io.Closer) {
	if err := c.Close(); err != nil {
		slog.Warn("Close failed", "resource", what, "error", err)
	}
}

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }

// WriteMetrics writes every metric gathered by g to path in the node_exporter
// textfile format.
func WriteMetrics(path string, g prometheus.Gatherer) error {
	if path == "" {
		return errors.New("empty metrics path")
	}
	return metrics.WriteTextfile(path, g)
}
