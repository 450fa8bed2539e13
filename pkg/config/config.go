// Package config loads the studio configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIURL       = "http://localhost:8080"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
	DefaultEventBus     = "gochannel"
	DefaultPollInterval = 5 * time.Second
)

// Config holds the settings shared by every studio command. Values given as
// flags or environment variables take precedence over the file.
type Config struct {
	APIURL       string        `yaml:"api_url"       validate:"required,url"`
	AuthToken    string        `yaml:"auth_token"`
	WorkspaceID  string        `yaml:"workspace_id"`
	LogLevel     string        `yaml:"log_level"     validate:"oneof=debug info warn error"`
	LogFormat    string        `yaml:"log_format"    validate:"oneof=text json"`
	EventBus     string        `yaml:"event_bus"     validate:"oneof=gochannel kafka"`
	KafkaBrokers []string      `yaml:"kafka_brokers" validate:"required_if=EventBus kafka,dive,hostname_port"`
	PollInterval time.Duration `yaml:"poll_interval" validate:"gt=0"`
	Tracing      bool          `yaml:"tracing"`
}

func Default() Config {
	return Config{
		APIURL:       DefaultAPIURL,
		LogLevel:     DefaultLogLevel,
		LogFormat:    DefaultLogFormat,
		EventBus:     DefaultEventBus,
		PollInterval: DefaultPollInterval,
	}
}

// Load reads a YAML file over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	return Parse(data)
}

// Parse decodes YAML over the defaults. Keys absent from data keep their default.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// Validate checks the final merged configuration.
func (c Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return nil
}
