package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"perfscore/internal/feeds"
	"perfscore/internal/metrics"
	"perfscore/internal/pipeline"
	"perfscore/internal/scorecard"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "PERFSCORE"

// Config is the workspace configuration file (perfscore.yml).
type Config struct {
	Bar       float64               `yaml:"bar" validate:"gt=0,lte=1000"`
	Clamp     map[string]float64    `yaml:"clamp" validate:"dive,keys,oneof=kpi okr project,endkeys,gte=0"`
	Modes     map[string]string     `yaml:"modes" validate:"dive,keys,oneof=kpi okr project,endkeys,oneof=ACCUMULATED EVOLUTION AVERAGE"`
	Aliases   string                `yaml:"aliases" validate:"required"`
	Timelines bool                  `yaml:"timelines"`
	Logging   LoggingConfig         `yaml:"logging"`
	Feeds     map[string]FeedConfig `yaml:"feeds" validate:"dive,keys,oneof=kpi okr project,endkeys"`
}

// LoggingConfig selects the zap level and encoder.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=console json"`
}

// FeedConfig says where one feed's rows come from.
type FeedConfig struct {
	Kind            string `yaml:"kind" validate:"required,oneof=csv xlsx sheets"`
	Path            string `yaml:"path" validate:"required_unless=Kind sheets"`
	Sheet           string `yaml:"sheet,omitempty"`
	Delimiter       string `yaml:"delimiter,omitempty" validate:"omitempty,len=1"`
	SpreadsheetID   string `yaml:"spreadsheet_id,omitempty" validate:"required_if=Kind sheets"`
	Range           string `yaml:"range,omitempty" validate:"required_if=Kind sheets"`
	CredentialsFile string `yaml:"credentials_file,omitempty"`
	HeaderRows      int    `yaml:"header_rows" validate:"gte=0"`
}

type envOverrides struct {
	Bar       float64 `envconfig:"BAR"`
	Aliases   string  `envconfig:"ALIASES"`
	LogLevel  string  `envconfig:"LOG_LEVEL"`
	LogFormat string  `envconfig:"LOG_FORMAT"`
}

// Default returns the configuration the portal runs with.
func Default() *Config {
	return &Config{
		Bar:       scorecard.DefaultBar,
		Clamp:     map[string]float64{string(metrics.SourceOKR): 100},
		Modes:     modeStrings(feeds.DefaultModes()),
		Aliases:   "teams.yml",
		Timelines: true,
		Logging:   LoggingConfig{Level: "info", Format: "console"},
		Feeds: map[string]FeedConfig{
			string(metrics.SourceKPI):     {Kind: "csv", Path: "feeds/kpi.csv", HeaderRows: 1},
			string(metrics.SourceOKR):     {Kind: "csv", Path: "feeds/okr.csv", HeaderRows: 1},
			string(metrics.SourceProject): {Kind: "csv", Path: "feeds/project.csv", HeaderRows: 1},
		},
	}
}

// Load reads path on top of the defaults, applies environment overrides and
// validates the result. A missing file leaves the defaults in place.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("load config from env: %w", err)
	}
	if env.Bar != 0 {
		c.Bar = env.Bar
	}
	if env.Aliases != "" {
		c.Aliases = env.Aliases
	}
	if env.LogLevel != "" {
		c.Logging.Level = strings.ToLower(env.LogLevel)
	}
	if env.LogFormat != "" {
		c.Logging.Format = strings.ToLower(env.LogFormat)
	}
	return nil
}

// FieldError is one invalid configuration field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationErrors lists every invalid field.
type ValidationErrors []FieldError

func (errs ValidationErrors) Error() string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return "invalid config: " + strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	out := make(ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		msg := fmt.Sprintf("failed %q", fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Sprintf("failed %q (%s)", fe.Tag(), fe.Param())
		}
		out = append(out, FieldError{Field: field, Message: msg})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

// EngineOptions converts the file settings into the engine's explicit
// options value.
func (c *Config) EngineOptions() pipeline.Options {
	opts := pipeline.DefaultOptions()
	opts.Timelines = c.Timelines
	opts.Scorecard.Bar = c.Bar
	opts.Scorecard.Clamp = make(map[metrics.Source]float64, len(c.Clamp))
	for name, limit := range c.Clamp {
		if src, err := metrics.ParseSource(name); err == nil {
			opts.Scorecard.Clamp[src] = limit
		}
	}
	for name, mode := range c.Modes {
		src, err := metrics.ParseSource(name)
		if err != nil {
			continue
		}
		if m := metrics.Mode(mode); m.Valid() {
			opts.Normalize.ModeDefaults[src] = m
		}
	}
	return opts
}

// Feed returns the feed settings for src.
func (c *Config) Feed(src metrics.Source) (FeedConfig, bool) {
	fc, ok := c.Feeds[string(src)]
	return fc, ok
}

func modeStrings(modes map[metrics.Source]metrics.Mode) map[string]string {
	out := make(map[string]string, len(modes))
	for src, m := range modes {
		out[string(src)] = string(m)
	}
	return out
}
