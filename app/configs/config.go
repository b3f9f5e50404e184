package configs

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"WordLeap/app/clients"
)

type Config struct {
	Oracle        OracleConfig     `yaml:"oracle"`
	SettleDelayMS int              `yaml:"settle_delay_ms" validate:"gte=0"`
	Server        ServerConfig     `yaml:"server"`
	Clients       []clients.Config `yaml:"clients,omitempty" validate:"dive"`
}

type OracleConfig struct {
	BaseURL        string  `yaml:"base_url" validate:"required,url"`
	Model          string  `yaml:"model" validate:"required"`
	Temperature    float64 `yaml:"temperature" validate:"gte=0.7,lte=0.9"`
	MaxTokens      int     `yaml:"max_tokens" validate:"gt=0,lte=200"`
	TimeoutSeconds int     `yaml:"timeout_seconds" validate:"gt=0"`
}

type ServerConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port" validate:"omitempty,gte=1,lte=65535"`
}

func Default() *Config {
	return &Config{
		Oracle: OracleConfig{
			BaseURL:        "https://api.openai.com",
			Model:          "gpt-4o-mini",
			Temperature:    0.8,
			MaxTokens:      60,
			TimeoutSeconds: 20,
		},
		SettleDelayMS: 800,
		Server:        ServerConfig{Enabled: false, Port: 8080},
		Clients:       []clients.Config{{Type: "console", Enabled: true}},
	}
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read configs file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configs: %w", err)
	}
	if c.Server.Enabled && c.Server.Port == 0 {
		return fmt.Errorf("invalid configs: server enabled without a port")
	}
	return nil
}

func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.SettleDelayMS) * time.Millisecond
}

func (c *Config) OracleTimeout() time.Duration {
	return time.Duration(c.Oracle.TimeoutSeconds) * time.Second
}
