package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		APIToken string `yaml:"api_token"`
	} `yaml:"server"`
	Database struct {
		// ConnStr empty means run on the in-memory repositories.
		ConnStr string `yaml:"conn_str"`
	} `yaml:"database"`
	Scheduler struct {
		EvaluateCron string `yaml:"evaluate_cron"`
	} `yaml:"scheduler"`
	Backtest struct {
		Seed int64 `yaml:"seed"`
	} `yaml:"backtest"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("HTTP_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("API_TOKEN"); v != "" {
		cfg.Server.APIToken = v
	}
	if v := os.Getenv("DB_CONN_STR"); v != "" {
		cfg.Database.ConnStr = v
	}
	if v := os.Getenv("EVALUATE_CRON"); v != "" {
		cfg.Scheduler.EvaluateCron = v
	}
	if v := os.Getenv("BACKTEST_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Backtest.Seed = seed
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.APIToken == "" {
		cfg.Server.APIToken = "dev-token"
	}
	if cfg.Scheduler.EvaluateCron == "" {
		cfg.Scheduler.EvaluateCron = "*/5 * * * *"
	}
	if cfg.Backtest.Seed == 0 {
		cfg.Backtest.Seed = 42
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in (0, 65535]")
	}
	if c.Server.APIToken == "" {
		return fmt.Errorf("server.api_token is required")
	}
	if c.Scheduler.EvaluateCron == "" {
		return fmt.Errorf("scheduler.evaluate_cron is required")
	}
	return nil
}
