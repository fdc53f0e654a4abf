package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Catalog    CatalogConfig    `toml:"catalog"`
	Generative GenerativeConfig `toml:"generative"`
	Browse     BrowseConfig     `toml:"browse"`
	Database   DatabaseConfig   `toml:"database"`
	Reviews    ReviewsConfig    `toml:"reviews"`
	Server     ServerConfig     `toml:"server"`
	Log        LogConfig        `toml:"log"`
}

// CatalogConfig contains Open Library client settings.
type CatalogConfig struct {
	BaseURL           string  `toml:"base_url"`
	CoversURL         string  `toml:"covers_url"`
	UserAgent         string  `toml:"user_agent"`
	MaxAttempts       int     `toml:"max_attempts"`
	BaseDelayMS       int     `toml:"base_delay_ms"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// BaseDelay returns the first retry delay as a [time.Duration].
func (c CatalogConfig) BaseDelay() time.Duration {
	return time.Duration(c.BaseDelayMS) * time.Millisecond
}

// GenerativeConfig contains generative language API settings.
type GenerativeConfig struct {
	BaseURL     string `toml:"base_url"`
	Model       string `toml:"model"`
	APIKey      string `toml:"api_key"`
	APIKeyEnv   string `toml:"api_key_env"`
	AccessToken string `toml:"access_token"`
}

// ResolveAPIKey returns the configured key, falling back to the environment.
//
// The variable named by api_key_env is checked first, then GEMINI_API_KEY.
func (g GenerativeConfig) ResolveAPIKey() string {
	if g.APIKey != "" {
		return g.APIKey
	}
	if g.APIKeyEnv != "" {
		if v := os.Getenv(g.APIKeyEnv); v != "" {
			return v
		}
	}
	return os.Getenv("GEMINI_API_KEY")
}

// BrowseConfig contains home feed settings.
type BrowseConfig struct {
	CategoryDelayMS     int `toml:"category_delay_ms"`
	CategoryLimit       int `toml:"category_limit"`
	RecommendationLimit int `toml:"recommendation_limit"`
}

// CategoryDelay returns the pause between category fetches.
func (b BrowseConfig) CategoryDelay() time.Duration {
	return time.Duration(b.CategoryDelayMS) * time.Millisecond
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ReviewsConfig selects how review record keys are derived from book keys.
type ReviewsConfig struct {
	KeyEncoding string `toml:"key_encoding"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
