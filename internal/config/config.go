package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "AGENDA_"

type Config struct {
	Server     ServerConfig              `koanf:"server"`
	Storage    StorageConfig             `koanf:"storage"`
	Generation GenerationConfig          `koanf:"generation"`
	Providers  map[string]ProviderConfig `koanf:"providers"`
	Users      []UserConfig              `koanf:"users"`
	Telemetry  TelemetryConfig           `koanf:"telemetry"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
	// RequestTimeout bounds a whole HTTP request; keep it above every provider timeout.
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

type StorageConfig struct {
	Type     string         `koanf:"type"` // sqlite, memory
	Database DatabaseConfig `koanf:"database"`
}

// DatabaseConfig is the database/sql driver and DSN for the audit store.
type DatabaseConfig struct {
	Driver string `koanf:"driver"`
	DSN    string `koanf:"dsn"`
}

type GenerationConfig struct {
	// Provider is the name of the active variant in Providers.
	Provider         string `koanf:"provider"`
	MinRequestLength int    `koanf:"min_request_length"`
	MaxRequestLength int    `koanf:"max_request_length"`
	// AuditConcurrency bounds concurrent audit writes.
	AuditConcurrency int `koanf:"audit_concurrency"`
}

// ProviderConfig describes one backend. It is read-only after Load.
type ProviderConfig struct {
	Name        string        `koanf:"name"`
	Type        string        `koanf:"type"` // gemini, openai, anthropic
	APIKey      string        `koanf:"api_key"`
	BaseURL     string        `koanf:"base_url"`
	Model       string        `koanf:"model"`
	Timeout     time.Duration `koanf:"timeout"`
	MaxTokens   int           `koanf:"max_tokens"`
	Temperature *float64      `koanf:"temperature"` // nil keeps the backend default
	// Format selects the parsing strategy: markdown or json.
	Format string `koanf:"format"`
	// StructuredCosts accepts estimated_costs as a {monthly:{min,max}} object in JSON answers.
	StructuredCosts bool `koanf:"structured_costs"`
}

type UserConfig struct {
	ID      string         `koanf:"id"`
	Name    string         `koanf:"name"`
	APIKeys []APIKeyConfig `koanf:"api_keys"`
}

type APIKeyConfig struct {
	KeyHash     string `koanf:"key_hash"`
	Description string `koanf:"description"`
}

type TelemetryConfig struct {
	Enabled     bool   `koanf:"enabled"`
	ServiceName string `koanf:"service_name"`
}

// Provider returns the named provider config.
func (c *Config) Provider(name string) (ProviderConfig, bool) {
	p, ok := c.Providers[name]
	return p, ok
}

// ActiveProvider returns the config of the active variant.
func (c *Config) ActiveProvider() (ProviderConfig, bool) {
	return c.Provider(c.Generation.Provider)
}

// Validate checks that the active provider is usable.
func (c *Config) Validate() error {
	if c.Generation.MinRequestLength <= 0 {
		return fmt.Errorf("generation.min_request_length must be positive")
	}
	if c.Generation.MaxRequestLength < c.Generation.MinRequestLength {
		return fmt.Errorf("generation.max_request_length must be >= min_request_length")
	}
	p, ok := c.ActiveProvider()
	if !ok {
		return fmt.Errorf("active provider %q is not configured", c.Generation.Provider)
	}
	if p.APIKey == "" {
		return fmt.Errorf("provider %q has no api_key", c.Generation.Provider)
	}
	if p.Timeout <= 0 {
		return fmt.Errorf("provider %q has no timeout", c.Generation.Provider)
	}
	return nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// wellKnownEnv maps vendor credential variables onto config keys.
var wellKnownEnv = map[string]string{
	"GOOGLE_API_KEY":    "providers.gemini.api_key",
	"GOOGLE_AI_MODEL":   "providers.gemini.model",
	"OPENAI_API_KEY":    "providers.openai.api_key",
	"OPENAI_MODEL":      "providers.openai.model",
	"ANTHROPIC_API_KEY": "providers.anthropic.api_key",
	"ANTHROPIC_MODEL":   "providers.anthropic.model",
}

var defaults = map[string]any{
	"server.port":                     8080,
	"server.request_timeout":          "330s",
	"storage.type":                    "sqlite",
	"storage.database.driver":         "sqlite",
	"storage.database.dsn":            "./data/agenda.db",
	"generation.provider":             "gemini",
	"generation.min_request_length":   20,
	"generation.max_request_length":   5000,
	"generation.audit_concurrency":    4,
	"providers.gemini.type":           "gemini",
	"providers.gemini.base_url":       "https://generativelanguage.googleapis.com",
	"providers.gemini.model":          "gemini-3-flash-preview",
	"providers.gemini.timeout":        "60s",
	"providers.gemini.max_tokens":     8192,
	"providers.gemini.temperature":    0.7,
	"providers.gemini.format":         "markdown",
	"providers.openai.type":           "openai",
	"providers.openai.base_url":       "https://api.openai.com/v1",
	"providers.openai.model":          "gpt-4o-mini",
	"providers.openai.timeout":        "120s",
	"providers.openai.max_tokens":     8192,
	"providers.openai.temperature":    0.7,
	"providers.openai.format":         "json",
	"providers.anthropic.type":        "anthropic",
	"providers.anthropic.base_url":    "https://api.anthropic.com",
	"providers.anthropic.model":       "claude-sonnet-4-5",
	"providers.anthropic.timeout":     "300s",
	"providers.anthropic.max_tokens":  8192,
	"providers.anthropic.temperature": 0.7,
	"providers.anthropic.format":      "markdown",
	"telemetry.service_name":          "potencia-agenda",
}

// Load reads config.yaml (if present) and the environment.
func Load() (*Config, error) {
	return LoadFile("config.yaml")
}

// LoadFile reads the given YAML file (missing is fine) and the environment.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			// File not found is OK, we'll use env vars
			if !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	// Vendor variables first so AGENDA_ variables can override them
	if err := k.Load(env.Provider("", ".", func(s string) string {
		return wellKnownEnv[s]
	}), nil); err != nil {
		return nil, err
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	for name, p := range cfg.Providers {
		if p.Name == "" {
			p.Name = name
		}
		if p.Type == "" {
			p.Type = name
		}
		p.APIKey = substituteEnvVars(p.APIKey)
		cfg.Providers[name] = p
	}

	return &cfg, nil
}

func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}
