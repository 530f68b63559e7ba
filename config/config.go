// Package config provides configuration loading and management for wayplan.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete wayplan configuration. It is constructed
// once at startup and treated as immutable; components receive it explicitly.
type Config struct {
	Providers ProvidersConfig `yaml:"providers"`
	Search    SearchConfig    `yaml:"search"`
	Weather   WeatherConfig   `yaml:"weather"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	NATS      NATSConfig      `yaml:"nats"`
}

// ProvidersConfig configures the LLM provider endpoints.
type ProvidersConfig struct {
	// Default is the provider used when the caller expresses no preference.
	Default string `yaml:"default"`
	// Endpoints maps provider name to its endpoint settings.
	Endpoints map[string]EndpointConfig `yaml:"endpoints"`
	// Temperature controls randomness (0.0-1.0, default: 0.7).
	Temperature float64 `yaml:"temperature"`
	// MaxTokens limits completion length (default: 2000).
	MaxTokens int `yaml:"max_tokens"`
	// Timeout is the maximum time to wait for a single completion.
	Timeout time.Duration `yaml:"timeout"`
}

// EndpointConfig defines one provider endpoint.
type EndpointConfig struct {
	// URL is the base URL (empty = provider default).
	URL string `yaml:"url"`
	// Model is the model identifier to request.
	Model string `yaml:"model"`
	// APIKey is the credential. Normally injected from the environment
	// by the loader, not stored in files.
	APIKey string `yaml:"api_key"`
}

// SearchConfig configures the web search sub-fetch.
type SearchConfig struct {
	// MaxResults caps returned snippets after deduplication (default: 5).
	MaxResults int `yaml:"max_results"`
	// Timeout bounds the search fetch (default: 10s).
	Timeout time.Duration `yaml:"timeout"`
	// Digest enables fetching the top result page and digesting it to
	// markdown for the prompt. Merge is one-way: once a layer enables it,
	// later layers cannot turn it back off (same as NATS.Disabled).
	Digest bool `yaml:"digest"`
	// DigestMaxChars bounds the digest size (default: 1200).
	DigestMaxChars int `yaml:"digest_max_chars"`
}

// WeatherConfig configures the weather sub-fetch.
type WeatherConfig struct {
	// APIKey is the OpenWeather credential. Empty disables the lookup.
	APIKey string `yaml:"api_key"`
	// Timeout bounds the forecast fetch (default: 10s).
	Timeout time.Duration `yaml:"timeout"`
}

// PipelineConfig configures orchestration policy.
type PipelineConfig struct {
	// RetryBackoff is the fixed pause before the single synthesis retry.
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// NATSConfig configures plan persistence.
type NATSConfig struct {
	// URL is the NATS server URL (empty = use embedded server).
	URL string `yaml:"url"`
	// Embedded indicates whether to run an embedded NATS server.
	Embedded bool `yaml:"embedded"`
	// Disabled turns off persistence entirely; plans are only rendered.
	Disabled bool `yaml:"disabled"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Providers: ProvidersConfig{
			Default: "ollama",
			Endpoints: map[string]EndpointConfig{
				"ollama": {
					URL:   "http://localhost:11434/v1",
					Model: "mistral:7b",
				},
				"openai": {
					Model: "gpt-4o-mini",
				},
				"anthropic": {
					Model: "claude-3-5-haiku-latest",
				},
			},
			Temperature: 0.7,
			MaxTokens:   2000,
			Timeout:     2 * time.Minute,
		},
		Search: SearchConfig{
			MaxResults:     5,
			Timeout:        10 * time.Second,
			Digest:         false,
			DigestMaxChars: 1200,
		},
		Weather: WeatherConfig{
			Timeout: 10 * time.Second,
		},
		Pipeline: PipelineConfig{
			RetryBackoff: 2 * time.Second,
		},
		NATS: NATSConfig{
			URL:      "",
			Embedded: true,
		},
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Providers.Default == "" {
		return fmt.Errorf("providers.default is required")
	}
	if _, ok := c.Providers.Endpoints[c.Providers.Default]; !ok {
		return fmt.Errorf("providers.default %q has no endpoint", c.Providers.Default)
	}
	if c.Providers.Temperature < 0 || c.Providers.Temperature > 1 {
		return fmt.Errorf("providers.temperature must be between 0 and 1")
	}
	if c.Search.MaxResults <= 0 {
		return fmt.Errorf("search.max_results must be positive")
	}
	return nil
}

// Merge merges another config into this one (other takes precedence for
// non-zero values). Boolean flags merge one-way: Search.Digest and
// NATS.Disabled can only be switched on by a later layer, since a zero
// bool in YAML is indistinguishable from an absent key.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Providers
	if other.Providers.Default != "" {
		c.Providers.Default = other.Providers.Default
	}
	for name, ep := range other.Providers.Endpoints {
		base := c.Providers.Endpoints[name]
		if ep.URL != "" {
			base.URL = ep.URL
		}
		if ep.Model != "" {
			base.Model = ep.Model
		}
		if ep.APIKey != "" {
			base.APIKey = ep.APIKey
		}
		if c.Providers.Endpoints == nil {
			c.Providers.Endpoints = make(map[string]EndpointConfig)
		}
		c.Providers.Endpoints[name] = base
	}
	if other.Providers.Temperature != 0 {
		c.Providers.Temperature = other.Providers.Temperature
	}
	if other.Providers.MaxTokens != 0 {
		c.Providers.MaxTokens = other.Providers.MaxTokens
	}
	if other.Providers.Timeout != 0 {
		c.Providers.Timeout = other.Providers.Timeout
	}

	// Search
	if other.Search.MaxResults != 0 {
		c.Search.MaxResults = other.Search.MaxResults
	}
	if other.Search.Timeout != 0 {
		c.Search.Timeout = other.Search.Timeout
	}
	if other.Search.Digest {
		c.Search.Digest = true
	}
	if other.Search.DigestMaxChars != 0 {
		c.Search.DigestMaxChars = other.Search.DigestMaxChars
	}

	// Weather
	if other.Weather.APIKey != "" {
		c.Weather.APIKey = other.Weather.APIKey
	}
	if other.Weather.Timeout != 0 {
		c.Weather.Timeout = other.Weather.Timeout
	}

	// Pipeline
	if other.Pipeline.RetryBackoff != 0 {
		c.Pipeline.RetryBackoff = other.Pipeline.RetryBackoff
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
		c.NATS.Embedded = false
	}
	if other.NATS.Disabled {
		c.NATS.Disabled = true
	}
}

// LoadFromFile loads configuration from a YAML file layered over defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file.
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
