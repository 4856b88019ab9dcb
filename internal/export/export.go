// Package export writes Knowledge usage records as delimited text, either as
// a full dump to a stream or incrementally appended to a file whose progress
// is tracked by a watermark.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/loykin/screentime/internal/knowledge"
	"github.com/loykin/screentime/internal/metrics"
	"github.com/loykin/screentime/internal/sink"
	"github.com/loykin/screentime/internal/watermark"
)

type Mode string

const (
	ModeFile   Mode = "file"
	ModeStream Mode = "stream"
)

// Source fetches usage records created after since (all records when zero).
type Source interface {
	FetchUsageEvents(ctx context.Context, since float64) ([]knowledge.UsageRecord, error)
}

// Result summarizes one export run.
type Result struct {
	Mode          Mode
	Records       int
	HeaderWritten bool
	Previous      watermark.Watermark
	Watermark     watermark.Watermark
}

// Exporter runs one export at a time. It is not safe for concurrent use and
// does not lock output files against other processes.
type Exporter struct {
	src   Source
	marks watermark.Store
	sinks []sink.Sink
	comma rune
}

type Option func(*Exporter)

// WithWatermarks replaces the default sidecar watermark store.
func WithWatermarks(s watermark.Store) Option { return func(e *Exporter) { e.marks = s } }

// WithSinks mirrors every written record to sinks.
func WithSinks(s ...sink.Sink) Option { return func(e *Exporter) { e.sinks = append(e.sinks, s...) } }

// WithDelimiter sets the field separator. Use ParseDelimiter for user input.
func WithDelimiter(r rune) Option { return func(e *Exporter) { e.comma = r } }

func New(src Source, opts ...Option) *Exporter {
	e := &Exporter{src: src, marks: watermark.Sidecar{}, comma: ','}
	for _, o := range opts {
		o(e)
	}
	return e
}

// ExportStream writes the header and every record to w, followed by an empty
// line. Watermarks are neither read nor written.
func (e *Exporter) ExportStream(ctx context.Context, w io.Writer) (res Result, err error) {
	res.Mode = ModeStream
	defer observe(&res, &err, time.Now())

	recs, err := e.src.FetchUsageEvents(ctx, 0)
	if err != nil {
		return res, err
	}

	rw := newRowWriter(w, e.comma)
	if err := rw.header(); err != nil {
		return res, fmt.Errorf("write header: %w", err)
	}
	res.HeaderWritten = true
	if err := e.writeRecords(ctx, rw, recs); err != nil {
		return res, err
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return res, fmt.Errorf("write output: %w", err)
	}

	res.Records = len(recs)
	e.publish(ctx, recs)
	return res, nil
}

// ExportFile appends records newer than the stored watermark to output. The
// header is written only when output did not exist before the run. The
// watermark is saved after the file is closed, and only if records were found.
func (e *Exporter) ExportFile(ctx context.Context, output string) (res Result, err error) {
	res.Mode = ModeFile
	defer observe(&res, &err, time.Now())

	prev, _, err := e.marks.Load(ctx, output)
	if err != nil {
		return res, fmt.Errorf("load watermark: %w", err)
	}
	res.Previous, res.Watermark = prev, prev
	slog.Debug("Loaded watermark", "output", output, "watermark", prev.String())

	recs, err := e.src.FetchUsageEvents(ctx, float64(prev))
	if err != nil {
		return res, err
	}

	// Probe then open: another writer could create the file in between.
	exists, err := fileExists(output)
	if err != nil {
		return res, err
	}
	f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return res, fmt.Errorf("open output: %w", err)
	}
	defer func() {
		if f != nil {
			_ = f.Close()
		}
	}()

	rw := newRowWriter(f, e.comma)
	if !exists {
		if err := rw.header(); err != nil {
			return res, fmt.Errorf("write header: %w", err)
		}
		res.HeaderWritten = true
	}
	if err := e.writeRecords(ctx, rw, recs); err != nil {
		return res, err
	}
	cerr := f.Close()
	f = nil
	if cerr != nil {
		return res, fmt.Errorf("close output: %w", cerr)
	}
	res.Records = len(recs)

	e.publish(ctx, recs)

	next, ok := newest(recs)
	if !ok || next <= prev {
		return res, nil
	}
	if err := e.marks.Save(ctx, output, next); err != nil {
		return res, fmt.Errorf("save watermark: %w", err)
	}
	res.Watermark = next
	metrics.SetWatermark(float64(next))
	slog.Info("Advanced watermark", "output", output, "from", prev.String(), "to", next.String())
	return res, nil
}

func (e *Exporter) writeRecords(ctx context.Context, rw *rowWriter, recs []knowledge.UsageRecord) error {
	for _, r := range recs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := rw.record(r); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	if err := rw.flush(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// publish forwards recs to every sink. Sink failures are logged and counted
// but never fail the export.
func (e *Exporter) publish(ctx context.Context, recs []knowledge.UsageRecord) {
	for _, s := range e.sinks {
		failed := 0
		for _, r := range recs {
			if err := s.Send(ctx, r); err != nil {
				failed++
				metrics.IncSinkError(s.Kind())
				slog.Warn("Sink rejected record", "sink", s.Kind(), "app", r.App, "created_at", r.CreatedAt.Float64, "error", err)
			}
		}
		slog.Debug("Published records", "sink", s.Kind(), "sent", len(recs)-failed, "failed", failed)
	}
}

// newest returns the latest creation time in recs, ignoring rows without
// one. Full exports are ordered by start date, so the first row is not
// necessarily the newest.
func newest(recs []knowledge.UsageRecord) (watermark.Watermark, bool) {
	var (
		latest float64
		found  bool
	)
	for _, r := range recs {
		if !r.CreatedAt.Valid {
			continue
		}
		if !found || r.CreatedAt.Float64 > latest {
			latest, found = r.CreatedAt.Float64, true
		}
	}
	return watermark.Watermark(latest), found
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat output: %w", err)
}

func observe(res *Result, err *error, start time.Time) {
	result := "success"
	if *err != nil {
		result = "error"
	} else {
		metrics.AddRecords(string(res.Mode), res.Records)
	}
	metrics.ObserveRun(string(res.Mode), result, time.Since(start).Seconds())
	slog.Info("Export finished", "mode", res.Mode, "result", result, "records", res.Records)
}
