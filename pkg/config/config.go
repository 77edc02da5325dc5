// Package config loads the process configuration once at startup. The
// resulting struct is read-only; everything downstream receives it by
// reference instead of consulting globals.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zen-systems/triagegate/pkg/provider"
)

// Config holds the application configuration.
type Config struct {
	GeminiAPIKey    string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	OllamaURL       string

	// DefaultProvider is attempted first; the remaining configured
	// providers follow in canonical order.
	DefaultProvider provider.ID

	Models  ModelsConfig
	Retry   RetryConfig
	Server  ServerConfig
	Geocode GeocodeConfig

	// AttemptTimeout bounds one provider call; RequestTimeout bounds a
	// whole assessment including retries and fallback.
	AttemptTimeout time.Duration
	RequestTimeout time.Duration

	ConfigDir string
}

// ModelsConfig selects the model per provider.
type ModelsConfig struct {
	Gemini       string `yaml:"gemini"`
	GeminiVision string `yaml:"gemini_vision"`
	OpenAI       string `yaml:"openai"`
	Anthropic    string `yaml:"anthropic"`
	Ollama       string `yaml:"ollama"`
}

// RetryConfig defines rate-limit retry behavior.
type RetryConfig struct {
	MaxAttempts    int   `yaml:"max_attempts"`
	BackoffSeconds []int `yaml:"backoff_seconds"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr              string  `yaml:"addr"`
	JWTSecret         string  `yaml:"jwt_secret"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// GeocodeConfig points at the reverse-geocoding service.
type GeocodeConfig struct {
	BaseURL string `yaml:"base_url"`
}

// FileConfig represents the structure of ~/.triagegate/config.yaml.
type FileConfig struct {
	APIKeys         APIKeysConfig `yaml:"api_keys"`
	OllamaURL       string        `yaml:"ollama_url"`
	DefaultProvider string        `yaml:"default_provider"`
	Models          ModelsConfig  `yaml:"models"`
	Retry           RetryConfig   `yaml:"retry"`
	Server          ServerConfig  `yaml:"server"`
	Geocode         GeocodeConfig `yaml:"geocode"`
	AttemptTimeoutS int           `yaml:"attempt_timeout_seconds"`
	RequestTimeoutS int           `yaml:"request_timeout_seconds"`
}

// APIKeysConfig holds API key configuration from file.
type APIKeysConfig struct {
	Gemini    string `yaml:"gemini"`
	OpenAI    string `yaml:"openai"`
	Anthropic string `yaml:"anthropic"`
}

// Load reads configuration from the config file and environment
// variables. Environment variables take precedence.
func Load() (*Config, error) {
	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}
	return loadFrom(filepath.Join(configDir, "config.yaml"), configDir)
}

// LoadFile reads configuration from a specific file path.
func LoadFile(path string) (*Config, error) {
	return loadFrom(path, filepath.Dir(path))
}

func loadFrom(path, configDir string) (*Config, error) {
	fileConfig, err := loadFileConfig(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		GeminiAPIKey:    getEnvOrDefault("GEMINI_API_KEY", fileConfig.APIKeys.Gemini),
		OpenAIAPIKey:    getEnvOrDefault("OPENAI_API_KEY", fileConfig.APIKeys.OpenAI),
		AnthropicAPIKey: getEnvOrDefault("ANTHROPIC_API_KEY", fileConfig.APIKeys.Anthropic),
		OllamaURL:       getEnvOrDefault("OLLAMA_URL", fileConfig.OllamaURL),
		Models:          fileConfig.Models,
		Retry:           fileConfig.Retry,
		Server:          fileConfig.Server,
		Geocode:         fileConfig.Geocode,
		AttemptTimeout:  time.Duration(fileConfig.AttemptTimeoutS) * time.Second,
		RequestTimeout:  time.Duration(fileConfig.RequestTimeoutS) * time.Second,
		ConfigDir:       configDir,
	}

	name := getEnvOrDefault("TRIAGE_DEFAULT_PROVIDER", fileConfig.DefaultProvider)
	if name == "" {
		name = "gemini"
	}
	id, ok := provider.ParseID(name)
	if !ok {
		return nil, fmt.Errorf("unknown default provider %q", name)
	}
	cfg.DefaultProvider = id

	if secret := os.Getenv("TRIAGE_JWT_SECRET"); secret != "" {
		cfg.Server.JWTSecret = secret
	}
	if addr := os.Getenv("TRIAGE_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}
	if url := os.Getenv("TRIAGE_GEOCODE_URL"); url != "" {
		cfg.Geocode.BaseURL = url
	}

	applyDefaults(cfg)
	return cfg, nil
}

// HasProvider reports whether the given provider is configured.
func (c *Config) HasProvider(id provider.ID) bool {
	switch id {
	case provider.Gemini:
		return c.GeminiAPIKey != ""
	case provider.OpenAI:
		return c.OpenAIAPIKey != ""
	case provider.Anthropic:
		return c.AnthropicAPIKey != ""
	case provider.Ollama:
		return c.OllamaURL != ""
	default:
		return false
	}
}

// Chain returns the configured providers in attempt order: the default
// provider first, then the rest in canonical order. Built once from
// configuration rather than reconstructed per call.
func (c *Config) Chain() []provider.ID {
	chain := make([]provider.ID, 0, len(provider.All()))
	if c.HasProvider(c.DefaultProvider) {
		chain = append(chain, c.DefaultProvider)
	}
	for _, id := range provider.All() {
		if id == c.DefaultProvider || !c.HasProvider(id) {
			continue
		}
		chain = append(chain, id)
	}
	return chain
}

// RetryBackoff converts the configured schedule to durations.
func (c *Config) RetryBackoff() []time.Duration {
	out := make([]time.Duration, 0, len(c.Retry.BackoffSeconds))
	for _, s := range c.Retry.BackoffSeconds {
		out = append(out, time.Duration(s)*time.Second)
	}
	return out
}

// loadFileConfig reads the config file, returning an empty config if it
// does not exist. A present but malformed file is an error; silently
// running with defaults would mask it.
func loadFileConfig(path string) (*FileConfig, error) {
	cfg := &FileConfig{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = 3
	}
	if len(cfg.Retry.BackoffSeconds) == 0 {
		cfg.Retry.BackoffSeconds = []int{2, 5, 9}
	}
	if cfg.AttemptTimeout == 0 {
		cfg.AttemptTimeout = 30 * time.Second
	}
	if cfg.RequestTimeout == 0 {
		// Must cover the attempt timeouts plus the full backoff ladder
		// for at least one provider.
		cfg.RequestTimeout = 2 * time.Minute
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
	if cfg.Server.RequestsPerSecond == 0 {
		cfg.Server.RequestsPerSecond = 20
	}
	if cfg.Server.Burst == 0 {
		cfg.Server.Burst = 40
	}
	if cfg.Geocode.BaseURL == "" {
		cfg.Geocode.BaseURL = "https://geo.triagegate.dev/v1/reverse"
	}
}

// getEnvOrDefault returns the environment variable value if set,
// otherwise returns the default value.
func getEnvOrDefault(envVar, defaultValue string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	return defaultValue
}

func getConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	configDir := filepath.Join(home, ".triagegate")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", err
	}
	return configDir, nil
}
