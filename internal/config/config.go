// Package config handles application configuration from defaults, an
// optional config.yml, and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is the public db.transport.rest deployment.
const DefaultBaseURL = "https://v6.db.transport.rest"

// Config holds all application configuration.
type Config struct {
	BaseURL     string        `validate:"required,url"`
	Port        string        `validate:"required,numeric"`
	Env         string        `validate:"required,oneof=development production"`
	HTTPTimeout time.Duration `validate:"gt=0"`
}

// fileConfig mirrors the optional config.yml.
type fileConfig struct {
	BaseURL            string `yaml:"base_url"`
	Port               int    `yaml:"port"`
	Env                string `yaml:"env"`
	HTTPTimeoutSeconds int    `yaml:"http_timeout_seconds"`
}

// Load reads configuration with precedence defaults < config.yml < environment.
func Load() (*Config, error) {
	return load("config.yml")
}

func load(path string) (*Config, error) {
	cfg := &Config{
		BaseURL:     DefaultBaseURL,
		Port:        "8080",
		Env:         "development",
		HTTPTimeout: 30 * time.Second,
	}

	if err := cfg.applyFile(path); err != nil {
		return nil, err
	}
	cfg.applyEnv()

	return cfg, nil
}

// applyFile merges the YAML file at path; a missing file is not an error.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	if fc.BaseURL != "" {
		c.BaseURL = fc.BaseURL
	}
	if fc.Port > 0 {
		c.Port = strconv.Itoa(fc.Port)
	}
	if fc.Env != "" {
		c.Env = fc.Env
	}
	if fc.HTTPTimeoutSeconds > 0 {
		c.HTTPTimeout = time.Duration(fc.HTTPTimeoutSeconds) * time.Second
	}
	return nil
}

func (c *Config) applyEnv() {
	c.BaseURL = getEnv("DB_REST_BASE_URL", c.BaseURL)
	c.Port = getEnv("PORT", c.Port)
	c.Env = getEnv("ENV", c.Env)
	if seconds := getIntEnv("HTTP_TIMEOUT_SECONDS", 0); seconds > 0 {
		c.HTTPTimeout = time.Duration(seconds) * time.Second
	}
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Validate checks that required configuration is present and well formed.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
