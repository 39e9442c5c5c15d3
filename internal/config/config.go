// Package config provides configuration loading and structs for the yowyob client.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug    bool           `yaml:"debug"`
	Server   ServerConfig   `yaml:"server"`
	API      APIConfig      `yaml:"api"`
	Search   SearchConfig   `yaml:"search"`
	Storage  StorageConfig  `yaml:"storage"`
	Geo      GeoConfig      `yaml:"geo"`
	Fallback FallbackConfig `yaml:"fallback"`
	Auth     AuthConfig     `yaml:"auth"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host          string        `yaml:"host"`
	Port          int           `yaml:"port"`
	SessionCookie string        `yaml:"session_cookie"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
}

// APIConfig points at the marketplace backend.
type APIConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	RateLimit float64       `yaml:"rate_limit"` // requests per second; 0 disables limiting
	Burst     int           `yaml:"burst"`
}

// SearchConfig holds search flow and result defaulting settings.
type SearchConfig struct {
	Debounce            time.Duration `yaml:"debounce"`
	NearMePhrases       []string      `yaml:"near_me_phrases"`
	HistoryLimit        int           `yaml:"history_limit"`
	StrictRecords       bool          `yaml:"strict_records"`
	PlaceholderImage    string        `yaml:"placeholder_image"`
	DefaultShopName     string        `yaml:"default_shop_name"`
	DefaultCity         string        `yaml:"default_city"`
	DefaultLat          float64       `yaml:"default_lat"`
	DefaultLng          float64       `yaml:"default_lng"`
	SuggestionMinLength int           `yaml:"suggestion_min_length"`
	MaxSuggestions      int           `yaml:"max_suggestions"`
	ResultsPerPage      int           `yaml:"results_per_page"`
}

// StorageConfig selects where client state is persisted.
type StorageConfig struct {
	Driver       string      `yaml:"driver"` // "sqlite" or "redis"
	DatabasePath string      `yaml:"database_path"`
	StateKey     string      `yaml:"state_key"`
	Redis        RedisConfig `yaml:"redis"`
}

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// GeoConfig holds client IP resolution settings.
type GeoConfig struct {
	Enabled      *bool         `yaml:"enabled"`
	IPServiceURL string        `yaml:"ip_service_url"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
}

// EnabledOrDefault returns whether IP resolution is on; defaults to true when unset.
func (g *GeoConfig) EnabledOrDefault() bool {
	if g.Enabled != nil {
		return *g.Enabled
	}
	return true
}

// FallbackConfig holds the offline dataset settings.
type FallbackConfig struct {
	DatasetPath string `yaml:"dataset_path"` // empty = bundled dataset
	Watch       bool   `yaml:"watch"`
	IndexPath   string `yaml:"index_path"` // empty = in-memory suggestions index
}

// AuthConfig holds local account fallback settings.
type AuthConfig struct {
	LocalFallback bool        `yaml:"local_fallback"`
	LocalUsers    []LocalUser `yaml:"local_users"`
}

// LocalUser is an offline account. PasswordHash is a bcrypt hash.
type LocalUser struct {
	ID           string `yaml:"id"`
	Email        string `yaml:"email"`
	Name         string `yaml:"name"`
	Role         string `yaml:"role"`
	PasswordHash string `yaml:"password_hash"`
}

// Load reads and parses the config file at path, applies environment overrides,
// expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// A missing .env is fine.
	_ = godotenv.Load(filepath.Join(filepath.Dir(path), ".env"))
	ApplyEnv(&cfg)
	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	if cfg.Fallback.DatasetPath != "" {
		cfg.Fallback.DatasetPath = expandPath(cfg.Fallback.DatasetPath, configDir)
	}
	if cfg.Fallback.IndexPath != "" {
		cfg.Fallback.IndexPath = expandPath(cfg.Fallback.IndexPath, configDir)
	}

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ApplyEnv overrides cfg with YOWYOB_* environment variables.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv("YOWYOB_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("YOWYOB_STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("YOWYOB_REDIS_ADDR"); v != "" {
		cfg.Storage.Redis.Addr = v
	}
	if v := os.Getenv("YOWYOB_REDIS_PASSWORD"); v != "" {
		cfg.Storage.Redis.Password = v
	}
	if v := os.Getenv("YOWYOB_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = b
		}
	}
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
