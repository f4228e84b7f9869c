// Package config loads and validates the resolver configuration file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultSearchBuffer is the capacity of the shared search output channel
// when the config does not specify one.
const DefaultSearchBuffer = 16

// ConfigLoader defines the interface for loading configuration.
type ConfigLoader interface {
	LoadConfig(path string) (*Config, error)
}

// Config represents the root configuration structure.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers ProvidersConfig `yaml:"providers"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig defines HTTP server settings.
type ServerConfig struct {
	// Address to listen on; the --address flag takes precedence.
	Address string `yaml:"address,omitempty"`

	// SearchBuffer is the capacity of the shared channel the streaming
	// search merge writes into. Zero means DefaultSearchBuffer.
	SearchBuffer int `yaml:"searchBuffer,omitempty"`
}

// ProvidersConfig enables and configures the backend catalog providers.
type ProvidersConfig struct {
	SeoulSeocho *SeoulSeochoConfig `yaml:"seoulSeocho,omitempty"`
}

// SeoulSeochoConfig configures the Seoul Seocho public library provider.
type SeoulSeochoConfig struct {
	Enabled bool `yaml:"enabled"`

	// BaseURL overrides the provider's default upstream endpoint.
	BaseURL string `yaml:"baseUrl,omitempty"`
}

// TelemetryConfig defines metrics settings.
type TelemetryConfig struct {
	Enabled bool `yaml:"enabled"`

	// ServiceName overrides the service name reported in telemetry.
	ServiceName string `yaml:"serviceName,omitempty"`
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Server.SearchBuffer < 0 {
		return fmt.Errorf("server.searchBuffer must not be negative, got %d", c.Server.SearchBuffer)
	}
	if !c.anyProviderEnabled() {
		return fmt.Errorf("no providers enabled; the resolver would federate nothing")
	}
	return nil
}

func (c *Config) anyProviderEnabled() bool {
	return c.Providers.SeoulSeocho != nil && c.Providers.SeoulSeocho.Enabled
}

// configLoader implements the ConfigLoader interface.
type configLoader struct{}

// NewConfigLoader creates a new ConfigLoader instance.
func NewConfigLoader() ConfigLoader {
	return &configLoader{}
}

// LoadConfig loads and parses configuration from a YAML file.
func (*configLoader) LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	return &config, nil
}
