// Package config provides configuration loading for capitolphone.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const maxConfigFileSize = 1024 * 1024 // 1MB

// Secret wraps strings that must not appear in logs or serialized output.
// Use Value() to access the actual secret value.
type Secret string

// String implements fmt.Stringer. Always returns the redacted value.
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "[REDACTED]"
}

// GoString implements fmt.GoStringer for %#v formatting.
func (s Secret) GoString() string {
	return "Secret([REDACTED])"
}

// Value returns the actual secret value. Use sparingly.
func (s Secret) Value() string {
	return string(s)
}

// IsSet returns true if the secret has a non-empty value.
func (s Secret) IsSet() bool {
	return s != ""
}

// MarshalJSON implements json.Marshaler. Always returns the redacted value.
func (s Secret) MarshalJSON() ([]byte, error) {
	if s == "" {
		return json.Marshal("")
	}
	return json.Marshal("[REDACTED]")
}

// ServerConfig holds the webhook HTTP server configuration.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`

	// PublicBaseURL is the externally visible base URL Twilio signs
	// requests against, e.g. https://phone.example.org. When empty the
	// request's own scheme and host are used.
	PublicBaseURL string `koanf:"public_base_url"`

	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// TwilioConfig holds the shared secret used to validate webhook signatures.
type TwilioConfig struct {
	AuthToken Secret `koanf:"auth_token"`
}

// DirectoryConfig holds the legislative-directory API client configuration.
type DirectoryConfig struct {
	BaseURL string        `koanf:"base_url"`
	APIKey  Secret        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`

	// RateLimit caps outbound directory requests per second.
	RateLimit float64 `koanf:"rate_limit"`
}

// MongoConfig holds document store configuration.
type MongoConfig struct {
	URI      string        `koanf:"uri"`
	Database string        `koanf:"database"`
	Timeout  time.Duration `koanf:"timeout"`
}

// NATSConfig holds the optional call-event stream configuration.
type NATSConfig struct {
	Enabled bool   `koanf:"enabled"`
	URL     string `koanf:"url"`
}

// LoggingConfig holds logger configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// AudioConfig locates the prerecorded prompt assets.
type AudioConfig struct {
	BaseURL string `koanf:"base_url"`
}

// Config is the root configuration for the capitolphone daemon.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Twilio    TwilioConfig    `koanf:"twilio"`
	Directory DirectoryConfig `koanf:"directory"`
	Mongo     MongoConfig     `koanf:"mongo"`
	NATS      NATSConfig      `koanf:"nats"`
	Logging   LoggingConfig   `koanf:"logging"`
	Audio     AudioConfig     `koanf:"audio"`
}

// Load loads configuration from a YAML file, then overrides with
// environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (SERVER_PORT, TWILIO_AUTH_TOKEN, etc.)
//  2. YAML config file
//  3. Hardcoded defaults
//
// Environment variables use an underscore separator and are uppercased.
// The transformer maps them to YAML field names:
//
//	SERVER_PORT          -> server.port
//	TWILIO_AUTH_TOKEN    -> twilio.auth_token
//	DIRECTORY_API_KEY    -> directory.api_key
//
// The configPath parameter may be empty, in which case only environment
// variables and defaults apply.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		f, err := os.Open(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
		if info.Size() > maxConfigFileSize {
			return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
		}

		content, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Override with environment variables. Split on the first underscore
	// only: SECTION_FIELD_NAME -> section.field_name.
	if err := k.Load(env.Provider("", ".", func(s string) string {
		lower := strings.ToLower(s)
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Directory.BaseURL == "" {
		cfg.Directory.BaseURL = "https://congress.api.sunlightfoundation.com"
	}
	if cfg.Directory.Timeout == 0 {
		cfg.Directory.Timeout = 10 * time.Second
	}
	if cfg.Directory.RateLimit == 0 {
		cfg.Directory.RateLimit = 10
	}

	if cfg.Mongo.URI == "" {
		cfg.Mongo.URI = "mongodb://localhost:27017"
	}
	if cfg.Mongo.Database == "" {
		cfg.Mongo.Database = "capitolphone"
	}
	if cfg.Mongo.Timeout == 0 {
		cfg.Mongo.Timeout = 5 * time.Second
	}

	if cfg.NATS.URL == "" {
		cfg.NATS.URL = "nats://localhost:4222"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Audio.BaseURL == "" {
		cfg.Audio.BaseURL = "http://assets.sunlightfoundation.com/projects/transparencyconnect/audio"
	}
}

// Validate checks configuration invariants that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if !c.Twilio.AuthToken.IsSet() {
		return fmt.Errorf("twilio.auth_token is required")
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
