// Package config provides configuration loading and validation for the unit browser.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"

	"github.com/jonathan/unit-browser/internal/extract"
	"github.com/jonathan/unit-browser/internal/fetch"
)

// DefaultSourceURL is the primary published location of the unit vocabulary.
const DefaultSourceURL = "https://qudt.org/2.1/vocab/unit"

// Config is the root configuration. Values come from a YAML or JSON file,
// then environment variables, then env-default tags.
type Config struct {
	Source   SourceConfig   `yaml:"source"   json:"source"`
	Extract  ExtractConfig  `yaml:"extract"  json:"extract"`
	Server   ServerConfig   `yaml:"server"   json:"server"`
	Database DatabaseConfig `yaml:"database" json:"database"`
	Log      LogConfig      `yaml:"log"      json:"log"`
}

// SourceConfig says where the vocabulary text comes from.
type SourceConfig struct {
	URL       string        `yaml:"url"        json:"url"        env:"UNIT_SOURCE_URL"        env-default:"https://qudt.org/2.1/vocab/unit" validate:"omitempty,url"`
	MirrorURL string        `yaml:"mirror_url" json:"mirror_url" env:"UNIT_SOURCE_MIRROR_URL" validate:"omitempty,url"`
	UseMirror bool          `yaml:"use_mirror" json:"use_mirror" env:"UNIT_SOURCE_USE_MIRROR" env-default:"false"`
	Files     []string      `yaml:"files"      json:"files"      env:"UNIT_SOURCE_FILES"      env-separator:","`
	Timeout   time.Duration `yaml:"timeout"    json:"timeout"    env:"UNIT_SOURCE_TIMEOUT"    env-default:"60s" validate:"gt=0"`
	UserAgent string        `yaml:"user_agent" json:"user_agent" env:"UNIT_SOURCE_USER_AGENT"`
	MaxBytes  int64         `yaml:"max_bytes"  json:"max_bytes"  env:"UNIT_SOURCE_MAX_BYTES"  env-default:"67108864" validate:"gt=0"`
	CacheTTL  time.Duration `yaml:"cache_ttl"  json:"cache_ttl"  env:"UNIT_SOURCE_CACHE_TTL"  env-default:"24h" validate:"gte=0"`
}

// ExtractConfig holds the field merge policies.
type ExtractConfig struct {
	ClassificationPolicy string `yaml:"classification_policy" json:"classification_policy" env:"EXTRACT_CLASSIFICATION_POLICY" env-default:"accumulate" validate:"oneof=first accumulate"`
	UnitCodePolicy       string `yaml:"unit_code_policy"      json:"unit_code_policy"      env:"EXTRACT_UNIT_CODE_POLICY"      env-default:"first"      validate:"oneof=first accumulate"`
	BaseURL              string `yaml:"base_url"              json:"base_url"              env:"EXTRACT_BASE_URL"              env-default:"https://qudt.org/vocab/unit/" validate:"url"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             json:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             json:"port"             env:"SERVER_PORT"             env-default:"8080" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     json:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    json:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     json:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	Title           string        `yaml:"title"            json:"title"            env:"SERVER_TITLE"`
	Template        string        `yaml:"template"         json:"template"         env:"SERVER_TEMPLATE"`
	Watch           bool          `yaml:"watch"            json:"watch"            env:"SERVER_WATCH"            env-default:"false"`
	WatchDebounce   time.Duration `yaml:"watch_debounce"   json:"watch_debounce"   env:"SERVER_WATCH_DEBOUNCE"   env-default:"500ms"`
}

// DatabaseConfig holds PostgreSQL connection settings. An empty URL disables persistence.
type DatabaseConfig struct {
	URL string `yaml:"url" json:"url" env:"DATABASE_URL"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  json:"level"  env:"LOG_LEVEL"  env-default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" json:"format" env:"LOG_FORMAT" env-default:"text" validate:"oneof=text json"`
}

// LoadConfig reads configuration from a YAML or JSON file (chosen by
// extension) and environment variables. Priority: ENV > file > defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromEnv builds configuration from environment variables and defaults only.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load uses LoadConfig when path is set and FromEnv otherwise.
func Load(path string) (*Config, error) {
	if path == "" {
		return FromEnv()
	}
	return LoadConfig(path)
}

var validate = validator.New()

// Validate checks field ranges and cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if c.Source.UseMirror && c.Source.MirrorURL == "" {
		return fmt.Errorf("config error: 'use_mirror' requires 'mirror_url'")
	}
	if c.Source.URL == "" && c.Source.MirrorURL == "" && len(c.Source.Files) == 0 {
		return fmt.Errorf("config error: one of 'url', 'mirror_url' or 'files' is required")
	}
	if c.Server.Template != "" {
		if _, err := os.Stat(c.Server.Template); os.IsNotExist(err) {
			return fmt.Errorf("config error: template file not found: %s", c.Server.Template)
		}
	}
	return nil
}

// ActiveURL returns the mirror when selected, otherwise the primary URL.
func (s SourceConfig) ActiveURL() string {
	if s.UseMirror && s.MirrorURL != "" {
		return s.MirrorURL
	}
	return s.URL
}

// FetchOptions converts the source settings for the fetcher.
func (s SourceConfig) FetchOptions() *fetch.Options {
	opts := fetch.DefaultOptions()
	if s.Timeout > 0 {
		opts.Timeout = s.Timeout
	}
	if s.UserAgent != "" {
		opts.UserAgent = s.UserAgent
	}
	if s.MaxBytes > 0 {
		opts.MaxBytes = s.MaxBytes
	}
	return opts
}

// Options converts the extract settings. Validate has already checked the policy names.
func (e ExtractConfig) Options() (*extract.Options, error) {
	classification, err := extract.ParsePolicy(e.ClassificationPolicy)
	if err != nil {
		return nil, fmt.Errorf("classification_policy: %w", err)
	}
	unitCode, err := extract.ParsePolicy(e.UnitCodePolicy)
	if err != nil {
		return nil, fmt.Errorf("unit_code_policy: %w", err)
	}
	return &extract.Options{
		ClassificationPolicy: classification,
		UnitCodePolicy:       unitCode,
		BaseURL:              e.BaseURL,
	}, nil
}

// Addr returns host:port for the listener.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
