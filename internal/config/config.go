// Package config loads process settings from an optional YAML file and the
// environment. Environment variables win over the file.
package config

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/thorn-jmh/errorst"
	"gopkg.in/yaml.v3"
)

// Config holds every setting the server and the CLI read.
type Config struct {
	Addr            string        `yaml:"addr"`
	ProviderBaseURL string        `yaml:"provider_base_url"`
	ProviderTimeout time.Duration `yaml:"provider_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	LogLevel        string        `yaml:"log_level"`
	LogFormat       string        `yaml:"log_format"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	// MaxDepth caps container nesting of request bodies (default 128); 0 is
	// unlimited.
	MaxDepth int `yaml:"max_depth"`
	// APIKey is the provider credential used by the CLI. It is only read
	// from the environment.
	APIKey string `yaml:"-"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Addr:            ":8000",
		ProviderBaseURL: "https://api.openai.com/v1",
		ProviderTimeout: 120 * time.Second,
		LogLevel:        "info",
		LogFormat:       "text",
		MaxBodyBytes:    10 << 20,
		MaxDepth:        128,
	}
}

// Load applies path (when non-empty) and then the environment on top of
// Default, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errorst.Wrap(err, "read config %s", path)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, errorst.Wrap(err, "parse config %s", path)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	cfg.CORSOrigins = normalizeOrigins(cfg.CORSOrigins)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("SCHEMAFORGE_ADDR", &c.Addr)
	str("SCHEMAFORGE_PROVIDER_BASE_URL", &c.ProviderBaseURL)
	str("SCHEMAFORGE_LOG_LEVEL", &c.LogLevel)
	str("SCHEMAFORGE_LOG_FORMAT", &c.LogFormat)
	str("SCHEMAFORGE_API_KEY", &c.APIKey)

	if v, ok := lookup("BACKEND_CORS_ORIGINS"); ok && v != "" {
		c.CORSOrigins = strings.Split(v, ",")
	}
	if v, ok := lookup("SCHEMAFORGE_PROVIDER_TIMEOUT"); ok && v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return errorst.Wrap(err, "SCHEMAFORGE_PROVIDER_TIMEOUT")
		}
		c.ProviderTimeout = d
	}
	if v, ok := lookup("SCHEMAFORGE_MAX_BODY_BYTES"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errorst.Wrap(err, "SCHEMAFORGE_MAX_BODY_BYTES")
		}
		c.MaxBodyBytes = n
	}
	if v, ok := lookup("SCHEMAFORGE_MAX_DEPTH"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errorst.Wrap(err, "SCHEMAFORGE_MAX_DEPTH")
		}
		c.MaxDepth = n
	}
	return nil
}

// parseDuration accepts Go durations ("90s") and bare seconds ("90").
func parseDuration(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}

// normalizeOrigins trims blanks and trailing slashes and drops empty entries.
func normalizeOrigins(in []string) []string {
	var out []string
	for _, o := range in {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Validate reports settings the process cannot start with.
func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return errorst.NewError("config: addr must not be empty")
	case c.ProviderTimeout <= 0:
		return errorst.NewError("config: provider timeout must be positive, got %s", c.ProviderTimeout)
	case c.MaxBodyBytes <= 0:
		return errorst.NewError("config: max body bytes must be positive, got %d", c.MaxBodyBytes)
	case c.MaxDepth < 0:
		return errorst.NewError("config: max depth must not be negative, got %d", c.MaxDepth)
	}
	if _, err := c.level(); err != nil {
		return err
	}
	if f := strings.ToLower(c.LogFormat); f != "text" && f != "json" {
		return errorst.NewError("config: log format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

func (c Config) level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, errorst.Wrap(err, "config: log level")
	}
	return l, nil
}

// Logger builds the process logger writing to w.
func (c Config) Logger(w io.Writer) *slog.Logger {
	l, err := c.level()
	if err != nil {
		l = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: l}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
