package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/loykin/screentime/internal/export"
	"github.com/spf13/pflag"
)

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("db", "", "")
	fs.StringP("output", "o", "", "")
	fs.StringP("delimiter", "d", ",", "")
	fs.String("state-dsn", "", "")
	fs.StringSlice("sink", nil, "")
	fs.String("metrics-file", "", "")
	fs.String("log-level", "warn", "")
	fs.String("log-file", "", "")
	return fs
}

func writeTOML(t *testing.T, data string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "screentime.toml")
	if err := os.WriteFile(p, []byte(data), 0o644); err != nil {
		t.Fatalf("write toml: %v", err)
	}
	return p
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Delimiter != "," || c.Output != "" || c.Log.Level != "warn" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.Log.File.MaxSizeMB != 10 || c.Log.File.MaxBackups != 3 || c.Log.File.MaxAgeDays != 7 {
		t.Fatalf("unexpected log file defaults: %+v", c.Log.File)
	}
	if len(c.Sinks) != 0 {
		t.Fatalf("unexpected sinks: %v", c.Sinks)
	}
}

func TestLoadFromTOML(t *testing.T) {
	p := writeTOML(t, `
db = "/tmp/knowledgeC.db"
output = "/tmp/usage.csv"
delimiter = ";"
state_dsn = "sqlite:///tmp/state.db"
sinks = ["sqlite:///tmp/events.db", "opensearch://localhost:9200/usage"]
metrics_file = "/tmp/screentime.prom"

[log]
level = "debug"
  [log.file]
  path = "/tmp/screentime.log"
  max_backups = 5
  compress = true
`)
	c, err := Load(p, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.DBPath != "/tmp/knowledgeC.db" || c.Output != "/tmp/usage.csv" || c.Delimiter != ";" {
		t.Fatalf("unexpected config: %+v", c)
	}
	if c.StateDSN != "sqlite:///tmp/state.db" || c.MetricsFile != "/tmp/screentime.prom" {
		t.Fatalf("unexpected config: %+v", c)
	}
	if len(c.Sinks) != 2 || c.Sinks[1] != "opensearch://localhost:9200/usage" {
		t.Fatalf("unexpected sinks: %v", c.Sinks)
	}
	if c.Log.Level != "debug" || c.Log.File.Path != "/tmp/screentime.log" {
		t.Fatalf("unexpected log config: %+v", c.Log)
	}
	if c.Log.File.MaxBackups != 5 || !c.Log.File.Compress || c.Log.File.MaxSizeMB != 10 {
		t.Fatalf("unexpected log file config: %+v", c.Log.File)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml"), nil); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestPrecedence(t *testing.T) {
	p := writeTOML(t, `
output = "from-file.csv"
delimiter = ";"
[log]
level = "error"
`)
	t.Setenv("SCREENTIME_OUTPUT", "from-env.csv")
	t.Setenv("SCREENTIME_LOG_LEVEL", "info")

	fs := testFlags()
	if err := fs.Parse([]string{"-o", "from-flag.csv"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	c, err := Load(p, fs)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Output != "from-flag.csv" {
		t.Errorf("output = %q, want flag value", c.Output)
	}
	if c.Log.Level != "info" {
		t.Errorf("log level = %q, want env value", c.Log.Level)
	}
	// unset flag defaults must not override the file
	if c.Delimiter != ";" {
		t.Errorf("delimiter = %q, want file value", c.Delimiter)
	}
}

func TestSinkFlagRepeatable(t *testing.T) {
	fs := testFlags()
	if err := fs.Parse([]string{"--sink", "a.db", "--sink", "postgres://localhost/x"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	c, err := Load("", fs)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(c.Sinks) != 2 || c.Sinks[0] != "a.db" || c.Sinks[1] != "postgres://localhost/x" {
		t.Fatalf("sinks = %v", c.Sinks)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"tab", func(c *Config) { c.Delimiter = `\t` }, false},
		{"long delimiter", func(c *Config) { c.Delimiter = "::" }, true},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, true},
		{"blank sink", func(c *Config) { c.Sinks = []string{" "} }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Load("", nil)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			tt.mutate(c)
			err = c.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateDelimiterSentinel(t *testing.T) {
	c := &Config{Delimiter: "ab", Log: defaultsOnly(t).Log}
	if err := c.Validate(); !errors.Is(err, export.ErrInvalidDelimiter) {
		t.Fatalf("err = %v, want ErrInvalidDelimiter", err)
	}
}

func defaultsOnly(t *testing.T) *Config {
	t.Helper()
	c, err := Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return c
}
