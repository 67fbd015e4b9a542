package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the FCT API server
type Config struct {
	// Auth (empty token disables authentication)
	AuthToken string `yaml:"authToken"`

	// Dataset config
	DataDir      string `yaml:"dataDir"`
	MetadataPath string `yaml:"metadataPath"`

	// Reload behavior
	ReloadIntervalMinutes int  `yaml:"reloadIntervalMinutes"`
	WatchData             bool `yaml:"watchData"`

	// Query limits
	DefaultLimit int `yaml:"defaultLimit"`
	MaxLimit     int `yaml:"maxLimit"`

	// Server
	Port           string  `yaml:"port"`
	RateLimit      float64 `yaml:"rateLimit"`
	RateLimitBurst int     `yaml:"rateLimitBurst"`

	// Environment (production, development)
	Environment string `yaml:"environment"`
}

// FileReader abstracts file access so .env and config files can be mocked in tests
type FileReader interface {
	Open(filename string) (io.ReadCloser, error)
	Stat(filename string) (os.FileInfo, error)
}

// OSFileReader reads files from the local filesystem
type OSFileReader struct{}

// Open opens the named file for reading
func (OSFileReader) Open(filename string) (io.ReadCloser, error) {
	return os.Open(filename)
}

// Stat returns the FileInfo for the named file
func (OSFileReader) Stat(filename string) (os.FileInfo, error) {
	return os.Stat(filename)
}

// Load reads configuration from an optional YAML file, .env and environment variables
func Load() *Config {
	return LoadWithFileReader(OSFileReader{})
}

// LoadWithFileReader loads configuration using the provided file reader.
// Precedence (lowest to highest): defaults, CONFIG_FILE (YAML), .env, environment.
func LoadWithFileReader(reader FileReader) *Config {
	loadEnvFileWithReader(reader)

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadYAMLWithReader(reader, path, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "warning: ignoring config file %s: %v\n", path, err)
		}
	}

	cfg.AuthToken = getEnv("AUTH_TOKEN", cfg.AuthToken)
	cfg.DataDir = getEnv("DATA_DIR", cfg.DataDir)
	cfg.MetadataPath = getEnv("METADATA_PATH", cfg.MetadataPath)
	if cfg.MetadataPath == "" {
		cfg.MetadataPath = filepath.Join(cfg.DataDir, "metadata.json")
	}
	cfg.ReloadIntervalMinutes = getEnvInt("RELOAD_INTERVAL_MINUTES", cfg.ReloadIntervalMinutes)
	cfg.WatchData = getEnvBool("WATCH_DATA", cfg.WatchData)
	cfg.DefaultLimit = getEnvInt("DEFAULT_LIMIT", cfg.DefaultLimit)
	cfg.MaxLimit = getEnvInt("MAX_LIMIT", cfg.MaxLimit)
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.RateLimit = getEnvFloat("RATE_LIMIT", cfg.RateLimit)
	cfg.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", cfg.RateLimitBurst)
	cfg.Environment = getEnv("ENV", cfg.Environment)

	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = 500
	}
	if cfg.DefaultLimit <= 0 || cfg.DefaultLimit > cfg.MaxLimit {
		cfg.DefaultLimit = min(50, cfg.MaxLimit)
	}

	return cfg
}

func defaults() *Config {
	return &Config{
		AuthToken:             "",
		DataDir:               "./data",
		ReloadIntervalMinutes: 0,
		WatchData:             false,
		DefaultLimit:          50,
		MaxLimit:              500,
		Port:                  "8080",
		RateLimit:             0,
		RateLimitBurst:        20,
		Environment:           "production",
	}
}

// ReloadInterval returns the reload interval as a duration
func (c *Config) ReloadInterval() time.Duration {
	return time.Duration(c.ReloadIntervalMinutes) * time.Minute
}

// IsDevelopment reports whether detailed errors should be returned to clients
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// AuthEnabled reports whether bearer authentication is required
func (c *Config) AuthEnabled() bool {
	return c.AuthToken != ""
}

// loadYAMLWithReader overlays values from a YAML config file onto cfg
func loadYAMLWithReader(reader FileReader, path string, cfg *Config) error {
	f, err := reader.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return fmt.Errorf("failed to parse yaml: %w", err)
	}
	return nil
}

// loadEnvFileWithReader loads KEY=VALUE pairs from .env without overriding
// variables already present in the environment
func loadEnvFileWithReader(reader FileReader) {
	if _, err := reader.Stat(".env"); err != nil {
		return
	}

	f, err := reader.Open(".env")
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		os.Setenv(key, value)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
