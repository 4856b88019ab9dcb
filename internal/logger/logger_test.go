package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
		err  bool
	}{
		{"", slog.LevelWarn, false},
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{" warning ", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.err {
			if err == nil {
				t.Errorf("ParseLevel(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestWriter_Defaults(t *testing.T) {
	if w := (FileConfig{}).Writer(); w != nil {
		t.Fatalf("expected nil writer without path")
	}
	w := FileConfig{Path: filepath.Join(t.TempDir(), "x.log")}.Writer()
	l, ok := w.(*lj.Logger)
	if !ok {
		t.Fatalf("writer is not lumberjack.Logger: %T", w)
	}
	if l.MaxSize != 10 || l.MaxBackups != 3 || l.MaxAge != 7 || l.Compress {
		t.Fatalf("unexpected defaults: size=%d backups=%d age=%d", l.MaxSize, l.MaxBackups, l.MaxAge)
	}
}

func TestWriter_Overrides(t *testing.T) {
	w := FileConfig{Path: "x2", MaxSizeMB: 1, MaxBackups: 9, MaxAgeDays: 11, Compress: true}.Writer()
	l := w.(*lj.Logger)
	if l.MaxSize != 1 || l.MaxBackups != 9 || l.MaxAge != 11 || !l.Compress {
		t.Fatalf("unexpected overrides: size=%d backups=%d age=%d compress=%t", l.MaxSize, l.MaxBackups, l.MaxAge, l.Compress)
	}
}

func TestNewHandler_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "screentime.log")
	h, closer, err := NewHandler(Config{Level: "info", File: FileConfig{Path: path}}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	log := slog.New(h)
	log.Debug("hidden")
	log.Info("Export finished", "records", 3)
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one JSON line, got %q", b)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["msg"] != "Export finished" || entry["records"] != float64(3) {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestNewHandler_StderrText(t *testing.T) {
	var buf bytes.Buffer
	h, _, err := NewHandler(Config{}, &buf)
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	log := slog.New(h)
	log.Info("quiet by default")
	log.Warn("Sink failed", "sink", "sqlite")

	out := buf.String()
	if strings.Contains(out, "quiet by default") {
		t.Fatalf("info should be filtered at default level: %q", out)
	}
	if !strings.Contains(out, "Sink failed") || !strings.Contains(out, "sink=sqlite") {
		t.Fatalf("missing warn line: %q", out)
	}
}

func TestNewHandler_BadLevel(t *testing.T) {
	if _, _, err := NewHandler(Config{Level: "chatty"}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestColorTextHandler(t *testing.T) {
	var buf bytes.Buffer
	h := NewColorTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}, false)
	if err := h.Handle(context.Background(), slog.NewRecord(testTime, slog.LevelError, "boom", 0)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	out := buf.String()
	// TextHandler quotes the escape sequences, so only check the parts.
	if !strings.Contains(out, "ERROR") || !strings.Contains(out, "boom") {
		t.Fatalf("missing level prefix: %q", out)
	}
	if strings.Contains(out, "time=") {
		t.Fatalf("time should be dropped when showTime is false: %q", out)
	}
}

var testTime = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
