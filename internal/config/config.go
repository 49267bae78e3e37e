package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"sessionchart/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app" yaml:"app"`
	Logging   logging.Config  `mapstructure:"logging" yaml:"logging"`
	Page      PageConfig      `mapstructure:"page" yaml:"page"`
	Session   SessionConfig   `mapstructure:"session" yaml:"session"`
	Loader    LoaderConfig    `mapstructure:"loader" yaml:"loader"`
	Output    OutputConfig    `mapstructure:"output" yaml:"output"`
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" yaml:"scheduler"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name" yaml:"name"`
	Environment string `mapstructure:"environment" yaml:"environment"`
}

// PageConfig describes the dashboard page and its tabs.
type PageConfig struct {
	Title       string             `mapstructure:"title" yaml:"title" validate:"required"`
	Caption     string             `mapstructure:"caption" yaml:"caption"`
	Layout      string             `mapstructure:"layout" yaml:"layout" validate:"oneof=wide centered"`
	Instruments []InstrumentConfig `mapstructure:"instruments" yaml:"instruments" validate:"required,min=1,dive"`
}

// InstrumentConfig is one tab: a contract and its source file.
type InstrumentConfig struct {
	Name   string `mapstructure:"name" yaml:"name" validate:"required"`
	Label  string `mapstructure:"label" yaml:"label"`
	Source string `mapstructure:"source" yaml:"source" validate:"required"`
	Kind   string `mapstructure:"kind" yaml:"kind" validate:"omitempty,oneof=csv xlsx"`
}

// TabLabel returns Label, falling back to Name.
func (i InstrumentConfig) TabLabel() string {
	if i.Label != "" {
		return i.Label
	}
	return i.Name
}

// SessionConfig governs session segmentation.
type SessionConfig struct {
	OpenHour    int    `mapstructure:"open_hour" yaml:"open_hour" validate:"gte=0,lte=23"`
	CloseHour   int    `mapstructure:"close_hour" yaml:"close_hour" validate:"gte=0,lte=23"`
	Location    string `mapstructure:"location" yaml:"location"`
	DefaultYear int    `mapstructure:"default_year" yaml:"default_year" validate:"gte=1900"`
}

// LoaderConfig controls source parsing.
type LoaderConfig struct {
	BaseDir       string   `mapstructure:"base_dir" yaml:"base_dir"`
	Encodings     []string `mapstructure:"encodings" yaml:"encodings" validate:"required,min=1"`
	SheetNames    []string `mapstructure:"sheet_names" yaml:"sheet_names" validate:"required,min=1"`
	DateColumns   []string `mapstructure:"date_columns" yaml:"date_columns" validate:"required,min=1"`
	PriceColumns  []string `mapstructure:"price_columns" yaml:"price_columns" validate:"required,min=1"`
	TimeColumn    string   `mapstructure:"time_column" yaml:"time_column" validate:"required"`
	AverageLabels []string `mapstructure:"average_labels" yaml:"average_labels"`
}

// OutputConfig sets render targets.
type OutputConfig struct {
	Dir    string `mapstructure:"dir" yaml:"dir" validate:"required"`
	Width  int    `mapstructure:"width" yaml:"width" validate:"gt=0"`
	Height int    `mapstructure:"height" yaml:"height" validate:"gt=0"`
	CSV    bool   `mapstructure:"csv" yaml:"csv"`
	PNG    bool   `mapstructure:"png" yaml:"png"`
	HTML   bool   `mapstructure:"html" yaml:"html"`
}

// ServerConfig configures the dashboard HTTP server.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr" yaml:"addr" validate:"required"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
}

// SchedulerConfig controls periodic re-rendering. Cron takes precedence over
// Interval; with neither set, render runs once.
type SchedulerConfig struct {
	Interval      time.Duration `mapstructure:"interval" yaml:"interval" validate:"gte=0"`
	Cron          string        `mapstructure:"cron" yaml:"cron"`
	AlignToBucket bool          `mapstructure:"align_to_bucket" yaml:"align_to_bucket"`
	StartupDelay  time.Duration `mapstructure:"startup_delay" yaml:"startup_delay" validate:"gte=0"`
}

var validate = validator.New()

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SESSIONCHART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "sessionchart")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("page.title", "US Treasury Futures Yield Model (6 PM → 4 PM Sessions)")
	v.SetDefault("page.caption", "Each trading day is rebased to 0 at its 6 PM open, then tracks through 4 PM next day. "+
		"Dashed black line shows average performance. Every 5-minute data point preserved.")
	v.SetDefault("page.layout", "wide")
	v.SetDefault("page.instruments", []map[string]any{
		{"name": "TUZ5", "label": "2Y – TUZ5", "source": "tuz5.csv"},
		{"name": "FVZ5", "label": "5Y – FVZ5", "source": "fvz5.csv"},
		{"name": "TYZ5", "label": "10Y – TYZ5", "source": "tyz5.csv"},
	})

	v.SetDefault("session.open_hour", 18)
	v.SetDefault("session.close_hour", 16)
	v.SetDefault("session.location", "UTC")
	v.SetDefault("session.default_year", time.Now().Year())

	v.SetDefault("loader.base_dir", "")
	v.SetDefault("loader.encodings", []string{"utf-8", "latin1"})
	v.SetDefault("loader.sheet_names", []string{"Chart", "Chart 1"})
	v.SetDefault("loader.date_columns", []string{"date"})
	v.SetDefault("loader.price_columns", []string{"lst"})
	v.SetDefault("loader.time_column", "Time/Day")
	v.SetDefault("loader.average_labels", []string{"Avg", "Average"})

	v.SetDefault("output.dir", "out")
	v.SetDefault("output.width", 1280)
	v.SetDefault("output.height", 500)
	v.SetDefault("output.csv", true)
	v.SetDefault("output.png", true)
	v.SetDefault("output.html", true)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "30s")

	v.SetDefault("scheduler.interval", "0s")
	v.SetDefault("scheduler.cron", "")
	v.SetDefault("scheduler.align_to_bucket", true)
	v.SetDefault("scheduler.startup_delay", "0s")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs struct-tag checks plus cross-field sanity checks.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Session.CloseHour >= c.Session.OpenHour {
		return fmt.Errorf("session.close_hour (%d) must be before session.open_hour (%d)", c.Session.CloseHour, c.Session.OpenHour)
	}
	if _, err := c.Session.TimeLocation(); err != nil {
		return err
	}

	seen := make(map[string]bool, len(c.Page.Instruments))
	for _, inst := range c.Page.Instruments {
		key := strings.ToUpper(inst.Name)
		if seen[key] {
			return fmt.Errorf("page.instruments: duplicate instrument %q", inst.Name)
		}
		seen[key] = true
	}
	return nil
}

// TimeLocation resolves the configured location used to read timestamps.
func (s SessionConfig) TimeLocation() (*time.Location, error) {
	if s.Location == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(s.Location)
	if err != nil {
		return nil, fmt.Errorf("session.location: %w", err)
	}
	return loc, nil
}

// Instrument looks up an instrument by name, ignoring case.
func (c *Config) Instrument(name string) (InstrumentConfig, bool) {
	for _, inst := range c.Page.Instruments {
		if strings.EqualFold(inst.Name, name) {
			return inst, true
		}
	}
	return InstrumentConfig{}, false
}
