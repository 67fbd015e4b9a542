package config

import (
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// MockFileReader implements FileReader for testing
type MockFileReader struct {
	files map[string]string // filename -> content
}

func (m MockFileReader) Open(filename string) (io.ReadCloser, error) {
	if content, exists := m.files[filename]; exists {
		return io.NopCloser(strings.NewReader(content)), nil
	}
	return nil, os.ErrNotExist
}

func (m MockFileReader) Stat(filename string) (os.FileInfo, error) {
	if _, exists := m.files[filename]; exists {
		// Return a minimal mock FileInfo - we just need it to not error
		return nil, nil
	}
	return nil, os.ErrNotExist
}

var envVarsToClean = []string{
	"AUTH_TOKEN", "DATA_DIR", "METADATA_PATH", "RELOAD_INTERVAL_MINUTES",
	"WATCH_DATA", "DEFAULT_LIMIT", "MAX_LIMIT", "PORT", "RATE_LIMIT",
	"RATE_LIMIT_BURST", "ENV", "CONFIG_FILE",
}

// withCleanEnv clears every config variable for the duration of the test
func withCleanEnv(t *testing.T) {
	t.Helper()

	originalVars := make(map[string]string)
	for _, key := range envVarsToClean {
		originalVars[key] = os.Getenv(key)
		os.Unsetenv(key)
	}

	t.Cleanup(func() {
		for _, key := range envVarsToClean {
			os.Unsetenv(key)
			if originalVal := originalVars[key]; originalVal != "" {
				os.Setenv(key, originalVal)
			}
		}
	})
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		expected *Config
	}{
		{
			name:    "default values",
			envVars: map[string]string{},
			expected: &Config{
				AuthToken:             "",
				DataDir:               "./data",
				MetadataPath:          "data/metadata.json", // filepath.Join result
				ReloadIntervalMinutes: 0,
				WatchData:             false,
				DefaultLimit:          50,
				MaxLimit:              500,
				Port:                  "8080",
				RateLimit:             0,
				RateLimitBurst:        20,
				Environment:           "production",
			},
		},
		{
			name: "custom values",
			envVars: map[string]string{
				"AUTH_TOKEN":              "custom-token",
				"DATA_DIR":                "/custom/data",
				"RELOAD_INTERVAL_MINUTES": "15",
				"WATCH_DATA":              "true",
				"DEFAULT_LIMIT":           "20",
				"MAX_LIMIT":               "100",
				"PORT":                    "3000",
				"RATE_LIMIT":              "12.5",
				"RATE_LIMIT_BURST":        "40",
				"ENV":                     "development",
			},
			expected: &Config{
				AuthToken:             "custom-token",
				DataDir:               "/custom/data",
				MetadataPath:          "/custom/data/metadata.json",
				ReloadIntervalMinutes: 15,
				WatchData:             true,
				DefaultLimit:          20,
				MaxLimit:              100,
				Port:                  "3000",
				RateLimit:             12.5,
				RateLimitBurst:        40,
				Environment:           "development",
			},
		},
		{
			name: "default limit above max is clamped",
			envVars: map[string]string{
				"DEFAULT_LIMIT": "80",
				"MAX_LIMIT":     "30",
			},
			expected: &Config{
				DataDir:        "./data",
				MetadataPath:   "data/metadata.json",
				DefaultLimit:   30,
				MaxLimit:       30,
				Port:           "8080",
				RateLimitBurst: 20,
				Environment:    "production",
			},
		},
		{
			name: "invalid numbers fall back to defaults",
			envVars: map[string]string{
				"MAX_LIMIT":  "lots",
				"WATCH_DATA": "maybe",
			},
			expected: &Config{
				DataDir:        "./data",
				MetadataPath:   "data/metadata.json",
				DefaultLimit:   50,
				MaxLimit:       500,
				Port:           "8080",
				RateLimitBurst: 20,
				Environment:    "production",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withCleanEnv(t)

			// Set test env vars
			for key, value := range tt.envVars {
				os.Setenv(key, value)
			}

			// Use mock file reader that has no .env file to ensure consistent testing
			mockReader := MockFileReader{files: map[string]string{}}
			config := LoadWithFileReader(mockReader)
			assert.Equal(t, tt.expected, config)
		})
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	withCleanEnv(t)

	yamlContent := `dataDir: /srv/fct
port: "9090"
maxLimit: 200
defaultLimit: 25
watchData: true
rateLimit: 5
`
	mockReader := MockFileReader{files: map[string]string{
		"/etc/fct/config.yaml": yamlContent,
	}}

	os.Setenv("CONFIG_FILE", "/etc/fct/config.yaml")
	os.Setenv("PORT", "7070") // environment wins over the file

	cfg := LoadWithFileReader(mockReader)
	assert.Equal(t, "/srv/fct", cfg.DataDir)
	assert.Equal(t, "/srv/fct/metadata.json", cfg.MetadataPath)
	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, 200, cfg.MaxLimit)
	assert.Equal(t, 25, cfg.DefaultLimit)
	assert.True(t, cfg.WatchData)
	assert.Equal(t, 5.0, cfg.RateLimit)
}

func TestLoad_MissingYAMLFileKeepsDefaults(t *testing.T) {
	withCleanEnv(t)
	os.Setenv("CONFIG_FILE", "/does/not/exist.yaml")

	cfg := LoadWithFileReader(MockFileReader{files: map[string]string{}})
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, 500, cfg.MaxLimit)
}

func TestReloadInterval(t *testing.T) {
	config := &Config{ReloadIntervalMinutes: 15}
	assert.Equal(t, "15m0s", config.ReloadInterval().String())

	config = &Config{ReloadIntervalMinutes: 0}
	assert.Equal(t, "0s", config.ReloadInterval().String())
}

func TestAuthEnabled(t *testing.T) {
	assert.False(t, (&Config{}).AuthEnabled())
	assert.True(t, (&Config{AuthToken: "secret"}).AuthEnabled())
}

func TestIsDevelopment(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		expected    bool
	}{
		{
			name:        "production mode",
			environment: "production",
			expected:    false,
		},
		{
			name:        "development mode",
			environment: "development",
			expected:    true,
		},
		{
			name:        "empty environment",
			environment: "",
			expected:    false,
		},
		{
			name:        "other environment",
			environment: "staging",
			expected:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Environment: tt.environment}
			assert.Equal(t, tt.expected, cfg.IsDevelopment())
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("with .env file", func(t *testing.T) {
		// Test .env file content
		envContent := `# Test .env file
AUTH_TOKEN=test-token-from-env
PORT=9999
DATA_DIR="/quoted/data"
# Comment line
EMPTY_LINE_ABOVE=yes

INVALID_LINE_NO_EQUALS
ANOTHER_VAR=value with spaces
`

		// Create mock file reader with .env file
		mockReader := MockFileReader{
			files: map[string]string{
				".env": envContent,
			},
		}

		// Clear existing env vars that might be set
		os.Unsetenv("DATA_DIR")
		os.Unsetenv("AUTH_TOKEN")
		os.Unsetenv("PORT")
		os.Unsetenv("ANOTHER_VAR")

		// Load the .env file using mock reader
		loadEnvFileWithReader(mockReader)

		// Check that values were loaded
		assert.Equal(t, "test-token-from-env", os.Getenv("AUTH_TOKEN"))
		assert.Equal(t, "9999", os.Getenv("PORT"))
		assert.Equal(t, "value with spaces", os.Getenv("ANOTHER_VAR"))
		assert.Equal(t, "/quoted/data", os.Getenv("DATA_DIR"))

		// Test CLI override: set an env var and reload
		os.Setenv("AUTH_TOKEN", "cli-override-token")
		loadEnvFileWithReader(mockReader)

		// CLI value should take precedence
		assert.Equal(t, "cli-override-token", os.Getenv("AUTH_TOKEN"))
		assert.Equal(t, "9999", os.Getenv("PORT")) // .env value should remain

		// Cleanup
		os.Unsetenv("AUTH_TOKEN")
		os.Unsetenv("PORT")
		os.Unsetenv("ANOTHER_VAR")
		os.Unsetenv("DATA_DIR")
	})

	t.Run("without .env file", func(t *testing.T) {
		// Create mock file reader with no .env file
		mockReader := MockFileReader{files: map[string]string{}}

		// Clear existing env vars
		os.Unsetenv("AUTH_TOKEN")
		os.Unsetenv("PORT")

		// Set a CLI env var
		os.Setenv("AUTH_TOKEN", "cli-token")

		// Load with no .env file should not error and should not affect CLI vars
		loadEnvFileWithReader(mockReader)

		// CLI variable should remain unchanged
		assert.Equal(t, "cli-token", os.Getenv("AUTH_TOKEN"))
		assert.Equal(t, "", os.Getenv("PORT")) // Should remain empty

		// Cleanup
		os.Unsetenv("AUTH_TOKEN")
	})
}
