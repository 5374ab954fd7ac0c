package config

import (
	"fmt"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"go.uber.org/zap"

	"github.com/Konsultn-Engineering/dynsql/dialect"
	"github.com/Konsultn-Engineering/dynsql/param"
	"github.com/Konsultn-Engineering/dynsql/schema"
)

// Config holds engine configuration.
// It can come from a YAML file or environment variables; environment variables
// always override YAML values.
type Config struct {
	// Dialect names the target database (mysql, oracle, postgres, ...).
	Dialect string `yaml:"dialect" env:"DYNSQL_DIALECT" env-default:"mysql"`

	// PageKey is the binding name that page objects are stored under.
	PageKey string `yaml:"page_key" env:"DYNSQL_PAGE_KEY" env-default:"page"`

	// FieldNaming converts struct field names into binding names.
	FieldNaming string `yaml:"field_naming" env:"DYNSQL_FIELD_NAMING" env-default:"camel"`

	// TemplateCacheSize bounds the number of parsed markup templates kept.
	TemplateCacheSize int `yaml:"template_cache_size" env:"DYNSQL_TEMPLATE_CACHE_SIZE" env-default:"256"`

	// ValidateSQL parses every resolved statement and logs the ones the SQL
	// parser rejects.
	ValidateSQL bool `yaml:"validate" env:"DYNSQL_VALIDATE" env-default:"false"`

	Quoting QuotingConfig `yaml:"quoting"`
	Format  FormatConfig  `yaml:"format"`
	Log     LogConfig     `yaml:"log"`
}

// QuotingConfig controls how bound values are inlined.
type QuotingConfig struct {
	Policy       string `yaml:"policy" env:"DYNSQL_QUOTE_POLICY" env-default:"uniform"`
	EscapeQuotes bool   `yaml:"escape_quotes" env:"DYNSQL_ESCAPE_QUOTES" env-default:"false"`
	// Injection is one of off, warn, reject.
	Injection string `yaml:"injection" env:"DYNSQL_INJECTION" env-default:"off"`
}

type FormatConfig struct {
	Enabled             bool `yaml:"enabled" env:"DYNSQL_FORMAT" env-default:"true"`
	IndentWidth         int  `yaml:"indent_width" env:"DYNSQL_FORMAT_INDENT" env-default:"2"`
	LinesBetweenQueries int  `yaml:"lines_between_queries" env:"DYNSQL_FORMAT_LINES_BETWEEN_QUERIES" env-default:"1"`
	Uppercase           bool `yaml:"uppercase" env:"DYNSQL_FORMAT_UPPERCASE" env-default:"false"`
}

type LogConfig struct {
	Level       string `yaml:"level" env:"DYNSQL_LOG_LEVEL" env-default:"info"`
	Development bool   `yaml:"development" env:"DYNSQL_LOG_DEVELOPMENT" env-default:"false"`
}

// Default returns the built-in configuration without consulting the
// environment.
func Default() *Config {
	return &Config{
		Dialect:           "mysql",
		PageKey:           schema.DefaultPageKey,
		FieldNaming:       "camel",
		TemplateCacheSize: 256,
		Quoting:           QuotingConfig{Policy: "uniform", Injection: "off"},
		Format:            FormatConfig{Enabled: true, IndentWidth: 2, LinesBetweenQueries: 1},
		Log:               LogConfig{Level: "info"},
	}
}

// Load reads path (YAML) with environment overrides. An empty path reads the
// environment only.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks every enumerated setting.
func (c *Config) Validate() error {
	if _, err := dialect.Lookup(c.Dialect); err != nil {
		return err
	}
	if _, err := param.ParsePolicy(c.Quoting.Policy); err != nil {
		return err
	}
	if _, err := param.ParseInjectionMode(c.Quoting.Injection); err != nil {
		return err
	}
	if _, err := schema.ParseFieldNaming(c.FieldNaming); err != nil {
		return err
	}
	if _, err := zap.ParseAtomicLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	if c.TemplateCacheSize <= 0 {
		return fmt.Errorf("template_cache_size must be positive, got %d", c.TemplateCacheSize)
	}
	if strings.TrimSpace(c.PageKey) == "" {
		return fmt.Errorf("page_key must not be empty")
	}
	if c.Format.IndentWidth < 0 || c.Format.LinesBetweenQueries < 0 {
		return fmt.Errorf("format widths must not be negative")
	}
	return nil
}

// ParamOptions translates the quoting settings for param.New.
func (c *Config) ParamOptions(logger *zap.Logger) ([]param.Option, error) {
	policy, err := param.ParsePolicy(c.Quoting.Policy)
	if err != nil {
		return nil, err
	}
	mode, err := param.ParseInjectionMode(c.Quoting.Injection)
	if err != nil {
		return nil, err
	}
	return []param.Option{
		param.WithPolicy(policy),
		param.WithEscapeQuotes(c.Quoting.EscapeQuotes),
		param.WithInjectionMode(mode),
		param.WithLogger(logger),
	}, nil
}

// NewLogger builds a production or development zap logger at the configured
// level.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	return zc.Build()
}
