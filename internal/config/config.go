package config

import (
	"encoding/json"
	"os"
)

type Config struct {
	Server struct {
		Host string `json:"host"`
		Port int    `json:"port"`
	} `json:"server"`

	Backend struct {
		// Type is "real", "mock" or "auto" (probe the environment).
		Type string `json:"type"`
		// AllowMockFallback permits falling back to the mock backend when
		// the git channel is unavailable. Ignored in prod.
		AllowMockFallback bool `json:"allow_mock_fallback"`
	} `json:"backend"`

	Journal struct {
		Path string `json:"path"`
	} `json:"journal"`

	Environment string `json:"environment"` // dev, prod
	LogLevel    string `json:"log_level"`   // debug, info, warn, error
}

func Default() *Config {
	cfg := &Config{}
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 7420
	cfg.Backend.Type = "auto"
	cfg.Backend.AllowMockFallback = true
	cfg.Environment = "development"
	cfg.LogLevel = "info"
	return cfg
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	config := Default()
	if err := json.NewDecoder(file).Decode(config); err != nil {
		return nil, err
	}

	return config, nil
}

// IsProduction reports whether mock fallback should be refused by default.
func (c *Config) IsProduction() bool {
	return c.Environment == "prod" || c.Environment == "production"
}
