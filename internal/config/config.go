// Package config merges command-line flags, SCREENTIME_* environment
// variables and an optional TOML file into one Config.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/loykin/screentime/internal/export"
	"github.com/loykin/screentime/internal/logger"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment key, e.g. SCREENTIME_OUTPUT or
// SCREENTIME_LOG_LEVEL.
const EnvPrefix = "SCREENTIME"

// Config is the merged configuration of one run.
type Config struct {
	DBPath      string        `toml:"db" mapstructure:"db"`
	Output      string        `toml:"output" mapstructure:"output"`
	Delimiter   string        `toml:"delimiter" mapstructure:"delimiter"`
	StateDSN    string        `toml:"state_dsn" mapstructure:"state_dsn"`
	Sinks       []string      `toml:"sinks" mapstructure:"sinks"`
	MetricsFile string        `toml:"metrics_file" mapstructure:"metrics_file"`
	Log         logger.Config `toml:"log" mapstructure:"log"`
}

// flagKeys maps config keys to the flag names that override them.
var flagKeys = map[string]string{
	"db":            "db",
	"output":        "output",
	"delimiter":     "delimiter",
	"state_dsn":     "state-dsn",
	"sinks":         "sink",
	"metrics_file":  "metrics-file",
	"log.level":     "log-level",
	"log.file.path": "log-file",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db", "")
	v.SetDefault("output", "")
	v.SetDefault("delimiter", ",")
	v.SetDefault("state_dsn", "")
	v.SetDefault("sinks", []string{})
	v.SetDefault("metrics_file", "")
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.file.path", "")
	v.SetDefault("log.file.max_size_mb", logger.DefaultMaxSizeMB)
	v.SetDefault("log.file.max_backups", logger.DefaultMaxBackups)
	v.SetDefault("log.file.max_age_days", logger.DefaultMaxAgeDays)
	v.SetDefault("log.file.compress", false)
}

// Load reads path (when not empty) as TOML, then applies environment
// variables and any flags in fs that were set explicitly. fs may be nil.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if fs != nil {
		for key, name := range flagKeys {
			f := fs.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &c, nil
}

// Validate rejects values that would fail later, before any file is touched.
func (c *Config) Validate() error {
	if _, err := export.ParseDelimiter(c.Delimiter); err != nil {
		return err
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	for _, s := range c.Sinks {
		if strings.TrimSpace(s) == "" {
			return errors.New("empty sink DSN")
		}
	}
	return nil
}
