// Package config loads the YAML configuration of mugglewand.
package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/ayusman/mugglewand/internal/gesture"
	"github.com/ayusman/mugglewand/internal/logging"
	"github.com/ayusman/mugglewand/internal/pipeline"
)

// Environment variables consulted after .env is loaded.
const (
	EnvConfigPath = "MUGGLEWAND_CONFIG"
	EnvLogLevel   = "MUGGLEWAND_LOG_LEVEL"
)

// Config is the top-level configuration.
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	Driver   DriverConfig   `yaml:"driver"`
	Source   SourceConfig   `yaml:"source"`
	Spells   []SpellConfig  `yaml:"spells"`
	Store    StoreConfig    `yaml:"store"`
	Server   ServerConfig   `yaml:"server"`
	Plugins  PluginsConfig  `yaml:"plugins"`
	Logging  LoggingConfig  `yaml:"logging"`
	Tray     TrayConfig     `yaml:"tray"`
}

// PipelineConfig tunes the motion-to-spell chain. See pipeline.Config.
type PipelineConfig struct {
	SmoothingWindow       int     `yaml:"smoothing_window"`
	VelocityWindow        int     `yaml:"velocity_window"`
	VelocityThreshold     float64 `yaml:"velocity_threshold"`
	QueueCapacity         int     `yaml:"queue_capacity"`
	TimeoutTicks          int     `yaml:"timeout_ticks"`
	BrightnessThreshold   float64 `yaml:"brightness_threshold"`
	LatchMode             string  `yaml:"latch_mode"`
	ActivityResetsTimeout bool    `yaml:"activity_resets_timeout"`
}

// DriverConfig sets the pace of the tick loop.
type DriverConfig struct {
	TickIntervalMS int `yaml:"tick_interval_ms"`
}

// SourceConfig selects where samples come from. An empty Replay means
// live samples pushed over the ingest websocket.
type SourceConfig struct {
	Replay string `yaml:"replay"`
	Loop   bool   `yaml:"loop"`
}

// SpellConfig overrides the built-in spell table when present.
type SpellConfig struct {
	Name  string   `yaml:"name"`
	Moves []string `yaml:"moves"`
}

// StoreConfig locates the sqlite database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig is the HTTP listen address and optional static file root.
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
}

// PluginsConfig locates plugins and bounds how long one may run.
type PluginsConfig struct {
	Dir       string `yaml:"dir"`
	TimeoutMS int    `yaml:"timeout_ms"`
}

// LoggingConfig selects the log level and an optional rotated log file.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// TrayConfig turns the system tray menu on.
type TrayConfig struct {
	Enabled bool `yaml:"enabled"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	dataDir := filepath.Join(home, ".mugglewand")

	p := pipeline.DefaultConfig()
	return Config{
		Pipeline: PipelineConfig{
			SmoothingWindow:     p.SmoothingWindow,
			VelocityWindow:      p.VelocityWindow,
			VelocityThreshold:   p.VelocityThreshold,
			QueueCapacity:       p.QueueCapacity,
			TimeoutTicks:        p.TimeoutTicks,
			BrightnessThreshold: p.BrightnessThreshold,
			LatchMode:           string(p.LatchMode),
		},
		Driver: DriverConfig{TickIntervalMS: 50},
		Store:  StoreConfig{Path: filepath.Join(dataDir, "mugglewand.db")},
		Server: ServerConfig{Addr: "localhost:8080"},
		Plugins: PluginsConfig{
			Dir:       filepath.Join(dataDir, "plugins"),
			TimeoutMS: 5000,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load reads path and overlays it onto DefaultConfig. Unknown keys are
// rejected. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config")
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, errors.Wrapf(err, "decode config %s", path)
	}
	return cfg, nil
}

// LoadEnv loads a .env file when one exists. A missing file is not an error.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	return errors.Wrap(godotenv.Load(present...), "load env")
}

// ApplyEnv applies environment overrides on top of c.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.Logging.Level = v
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	p := c.Pipeline
	switch {
	case p.SmoothingWindow <= 0:
		return errors.New("pipeline.smoothing_window must be positive")
	case p.VelocityWindow <= 0:
		return errors.New("pipeline.velocity_window must be positive")
	case p.VelocityThreshold <= 0:
		return errors.New("pipeline.velocity_threshold must be positive")
	case p.QueueCapacity <= 0:
		return errors.New("pipeline.queue_capacity must be positive")
	case p.TimeoutTicks <= 0:
		return errors.New("pipeline.timeout_ticks must be positive")
	case p.BrightnessThreshold <= 0:
		return errors.New("pipeline.brightness_threshold must be positive")
	}
	if _, err := gesture.ParseLatchMode(p.LatchMode); err != nil {
		return errors.Wrap(err, "pipeline.latch_mode")
	}
	if c.Driver.TickIntervalMS <= 0 {
		return errors.New("driver.tick_interval_ms must be positive")
	}
	if c.Plugins.TimeoutMS <= 0 {
		return errors.New("plugins.timeout_ms must be positive")
	}
	if len(c.Spells) > 0 {
		if _, err := c.Matcher(); err != nil {
			return err
		}
	}
	return nil
}

// PipelineSettings converts the pipeline section. Call Validate first.
func (c *Config) PipelineSettings() pipeline.Config {
	mode, _ := gesture.ParseLatchMode(c.Pipeline.LatchMode)
	return pipeline.Config{
		SmoothingWindow:       c.Pipeline.SmoothingWindow,
		VelocityWindow:        c.Pipeline.VelocityWindow,
		VelocityThreshold:     c.Pipeline.VelocityThreshold,
		QueueCapacity:         c.Pipeline.QueueCapacity,
		TimeoutTicks:          c.Pipeline.TimeoutTicks,
		BrightnessThreshold:   c.Pipeline.BrightnessThreshold,
		LatchMode:             mode,
		ActivityResetsTimeout: c.Pipeline.ActivityResetsTimeout,
	}
}

// SpellTable parses the spells section. It returns nil when the section
// is empty.
func (c *Config) SpellTable() ([]gesture.Spell, error) {
	if len(c.Spells) == 0 {
		return nil, nil
	}
	spells := make([]gesture.Spell, 0, len(c.Spells))
	for i, sc := range c.Spells {
		seq := make([]gesture.Move, 0, len(sc.Moves))
		for _, name := range sc.Moves {
			m, err := gesture.ParseMove(name)
			if err != nil {
				return nil, errors.Wrapf(err, "spells[%d]", i)
			}
			seq = append(seq, m)
		}
		spells = append(spells, gesture.Spell{Name: sc.Name, Sequence: seq})
	}
	return spells, nil
}

// Matcher builds the spell matcher described by the config, falling back
// to the built-in table.
func (c *Config) Matcher() (*gesture.SpellMatcher, error) {
	spells, err := c.SpellTable()
	if err != nil {
		return nil, err
	}
	if spells == nil {
		spells = gesture.DefaultSpells()
	}
	m, err := gesture.NewSpellMatcher(c.Pipeline.QueueCapacity, spells)
	if err != nil {
		return nil, errors.Wrap(err, "spells")
	}
	return m, nil
}

// TickInterval returns the driver cadence.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Driver.TickIntervalMS) * time.Millisecond
}

// PluginTimeout returns the per-execution plugin deadline.
func (c *Config) PluginTimeout() time.Duration {
	return time.Duration(c.Plugins.TimeoutMS) * time.Millisecond
}

// LogSettings converts the logging section.
func (c *Config) LogSettings() logging.Config {
	return logging.Config{
		Level:      c.Logging.Level,
		File:       c.Logging.File,
		MaxSizeMB:  c.Logging.MaxSizeMB,
		MaxBackups: c.Logging.MaxBackups,
		MaxAgeDays: c.Logging.MaxAgeDays,
		Compress:   c.Logging.Compress,
	}
}
