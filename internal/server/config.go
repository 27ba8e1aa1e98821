package server

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the server's YAML-backed configuration.
type Config struct {
	ListenAddr     string  `yaml:"listen_addr"`
	TickRate       float64 `yaml:"tick_rate"` // ticks per second
	MaxConnections int     `yaml:"max_connections"`
	LogLevel       string  `yaml:"log_level"`

	Game GameConfig `yaml:"game"`
}

type GameConfig struct {
	// SeedSystem populates the state with a small star system on startup.
	SeedSystem bool `yaml:"seed_system"`
}

func DefaultConfig() Config {
	return Config{
		ListenAddr:     ":8080",
		TickRate:       20,
		MaxConnections: 256,
		LogLevel:       "info",
		Game:           GameConfig{SeedSystem: true},
	}
}

// LoadConfig reads the file over the defaults; an empty path yields the
// defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr must not be empty")
	}
	if c.TickRate <= 0 {
		return fmt.Errorf("tick_rate must be positive, got %g", c.TickRate)
	}
	if c.MaxConnections <= 0 {
		return fmt.Errorf("max_connections must be positive, got %d", c.MaxConnections)
	}
	return nil
}

// TickInterval converts the configured rate to a ticker period.
func (c Config) TickInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.TickRate)
}
