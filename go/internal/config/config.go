package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the server settings. It is built once at startup and treated
// as read-only afterwards.
type Config struct {
	Port          string `yaml:"port"`
	AdminKey      string `yaml:"admin_key"`
	CountdownFile string `yaml:"countdown_file"`
	StaticDir     string `yaml:"static_dir"`

	NATS struct {
		URL     string `yaml:"url"`
		Subject string `yaml:"subject"`
	} `yaml:"nats"`

	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Default returns the built-in settings.
func Default() Config {
	var c Config
	c.Port = "3000"
	c.CountdownFile = "countdown.json"
	c.StaticDir = "public"
	c.NATS.Subject = "countdown.events"
	c.CORSAllowedOrigins = []string{"*"}
	c.Log.Level = "info"
	c.Log.Format = "console"
	return c
}

// Load builds the configuration from defaults, the optional YAML file named by
// CONFIG_FILE, and environment overrides, in that order.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.AdminKey = getEnv("ADMIN_KEY", c.AdminKey)
	c.CountdownFile = getEnv("COUNTDOWN_FILE", c.CountdownFile)
	c.StaticDir = getEnv("STATIC_DIR", c.StaticDir)
	c.NATS.URL = getEnv("NATS_URL", c.NATS.URL)
	c.NATS.Subject = getEnv("NATS_SUBJECT", c.NATS.Subject)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.CORSAllowedOrigins = splitCSV(v)
	}
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port %q", c.Port)
	}
	if c.CountdownFile == "" {
		return fmt.Errorf("countdown file path is required")
	}
	return nil
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return ":" + c.Port
}

// AdminEnabled reports whether an admin secret is configured.
func (c Config) AdminEnabled() bool {
	return c.AdminKey != ""
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
