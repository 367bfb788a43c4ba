package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents runtime configuration for the service.
type Config struct {
	BasicConfig BasicConfig               `json:"basic_config"`
	Memory      MemoryConfig              `json:"memory"`
	Providers   map[string]ProviderConfig `json:"providers"`
	Weather     WeatherConfig             `json:"weather"`
	Redis       RedisConfig               `json:"redis"`
	Databases   map[string]DatabaseConfig `json:"databases"`
}

type ProviderConfig struct {
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
	APIKey  string `json:"api_key"`
}

type BasicConfig struct {
	ServerAddress   string `json:"server_address"`
	DefaultProvider string `json:"default_provider"`
}

// MemoryConfig tunes the in-memory session store. Zero values fall back to
// the store defaults.
type MemoryConfig struct {
	MaxMessages       int `json:"max_messages"`
	SummarizeInterval int `json:"summarize_interval"`
	SessionTTLSeconds int `json:"session_ttl_seconds"`
}

type WeatherConfig struct {
	APIKey string `json:"api_key"`
}

type RedisConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Username string `json:"username"`
	Password string `json:"password"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	DBName   string `json:"db_name"`
	Params   string `json:"params"`
}

// Load reads configuration from the provided path (defaults to config.json).
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.json"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.BasicConfig.DefaultProvider == "" {
		cfg.BasicConfig.DefaultProvider = "openai"
	}
	if _, ok := cfg.Providers[cfg.BasicConfig.DefaultProvider]; !ok {
		return nil, fmt.Errorf("default provider %q not configured", cfg.BasicConfig.DefaultProvider)
	}

	return &cfg, nil
}
