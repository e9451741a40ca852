package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Crawler.Timeout != 15*time.Second {
		t.Errorf("Expected default timeout to be 15s, got %s", config.Crawler.Timeout)
	}

	if config.Crawler.DefaultPageSize != 20 {
		t.Errorf("Expected default page size to be 20, got %d", config.Crawler.DefaultPageSize)
	}

	if config.Crawler.UserAgent != DefaultUserAgent {
		t.Errorf("Expected default user agent, got %s", config.Crawler.UserAgent)
	}

	if err := config.Validate(); err != nil {
		t.Errorf("Expected defaults to validate, got %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("WALLCRAWL_USER_AGENT", "TestAgent/1.0")
	t.Setenv("WALLCRAWL_TIMEOUT", "5s")
	t.Setenv("WALLCRAWL_PAGE_SIZE", "12")
	t.Setenv("WALLCRAWL_REQUESTS_PER_MINUTE", "10")
	t.Setenv("WALLCRAWL_CHECKPOINT_DIR", "/tmp/wallcrawl-cursors")
	t.Setenv("WALLCRAWL_LOG_LEVEL", "debug")

	config := DefaultConfig()
	err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("Failed to load from environment: %v", err)
	}

	if config.Crawler.UserAgent != "TestAgent/1.0" {
		t.Errorf("Expected user agent to be TestAgent/1.0, got %s", config.Crawler.UserAgent)
	}

	if config.Crawler.Timeout != 5*time.Second {
		t.Errorf("Expected timeout to be 5s, got %s", config.Crawler.Timeout)
	}

	if config.Crawler.DefaultPageSize != 12 {
		t.Errorf("Expected page size to be 12, got %d", config.Crawler.DefaultPageSize)
	}

	if config.RateLimit.RequestsPerMinute != 10 {
		t.Errorf("Expected requests per minute to be 10, got %d", config.RateLimit.RequestsPerMinute)
	}

	if config.Checkpoint.Directory != "/tmp/wallcrawl-cursors" {
		t.Errorf("Expected checkpoint dir to be /tmp/wallcrawl-cursors, got %s", config.Checkpoint.Directory)
	}

	if config.Logging.Level != "debug" {
		t.Errorf("Expected log level to be debug, got %s", config.Logging.Level)
	}
}

func TestLoadFromEnvInvalidTimeout(t *testing.T) {
	t.Setenv("WALLCRAWL_TIMEOUT", "soon")

	config := DefaultConfig()
	if err := config.LoadFromEnv(); err == nil {
		t.Error("Expected error for invalid timeout")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantError bool
	}{
		{
			name:      "valid config",
			mutate:    func(c *Config) {},
			wantError: false,
		},
		{
			name:      "zero timeout",
			mutate:    func(c *Config) { c.Crawler.Timeout = 0 },
			wantError: true,
		},
		{
			name:      "blank user agent",
			mutate:    func(c *Config) { c.Crawler.UserAgent = "  " },
			wantError: true,
		},
		{
			name: "max page size below default",
			mutate: func(c *Config) {
				c.Crawler.DefaultPageSize = 50
				c.Crawler.MaxPageSize = 10
			},
			wantError: true,
		},
		{
			name:      "no concurrency",
			mutate:    func(c *Config) { c.Crawler.MaxConcurrentSources = 0 },
			wantError: true,
		},
		{
			name:      "invalid log level",
			mutate:    func(c *Config) { c.Logging.Level = "invalid" },
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	config := DefaultConfig()

	flags := map[string]interface{}{
		"timeout":             30 * time.Second,
		"page-size":           40,
		"concurrent":          7,
		"requests-per-minute": 5,
		"checkpoint-dir":      "/flag/cursors",
		"log-level":           "error",
	}

	config.MergeCommandLineFlags(flags)

	if config.Crawler.Timeout != 30*time.Second {
		t.Errorf("Expected timeout to be 30s, got %s", config.Crawler.Timeout)
	}

	if config.Crawler.DefaultPageSize != 40 {
		t.Errorf("Expected page size to be 40, got %d", config.Crawler.DefaultPageSize)
	}

	if config.Crawler.MaxConcurrentSources != 7 {
		t.Errorf("Expected concurrency to be 7, got %d", config.Crawler.MaxConcurrentSources)
	}

	if config.RateLimit.RequestsPerMinute != 5 {
		t.Errorf("Expected requests per minute to be 5, got %d", config.RateLimit.RequestsPerMinute)
	}

	if config.Checkpoint.Directory != "/flag/cursors" {
		t.Errorf("Expected checkpoint dir to be /flag/cursors, got %s", config.Checkpoint.Directory)
	}

	if config.Logging.Level != "error" {
		t.Errorf("Expected log level to be error, got %s", config.Logging.Level)
	}
}

func TestSaveAndLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")

	config := DefaultConfig()
	config.Crawler.Timeout = 9 * time.Second
	config.Crawler.DefaultPageSize = 8
	config.Logging.Level = "warn"

	err := config.Save(configPath)
	if err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loadedConfig := DefaultConfig()
	err = loadedConfig.LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loadedConfig.Crawler.Timeout != 9*time.Second {
		t.Errorf("Expected loaded timeout to be 9s, got %s", loadedConfig.Crawler.Timeout)
	}

	if loadedConfig.Crawler.DefaultPageSize != 8 {
		t.Errorf("Expected loaded page size to be 8, got %d", loadedConfig.Crawler.DefaultPageSize)
	}

	if loadedConfig.Logging.Level != "warn" {
		t.Errorf("Expected loaded log level to be warn, got %s", loadedConfig.Logging.Level)
	}
}

func TestLoadFromFileYAMLDuration(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "wallcrawl.yaml")

	content := []byte("crawler:\n  timeout: 20s\n  default_page_size: 30\n")
	if err := os.WriteFile(configPath, content, 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	config := DefaultConfig()
	if err := config.LoadFromFile(configPath); err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if config.Crawler.Timeout != 20*time.Second {
		t.Errorf("Expected timeout to be 20s, got %s", config.Crawler.Timeout)
	}
	if config.Crawler.DefaultPageSize != 30 {
		t.Errorf("Expected page size to be 30, got %d", config.Crawler.DefaultPageSize)
	}
	// Untouched sections keep their defaults
	if config.Crawler.MaxPageSize != 100 {
		t.Errorf("Expected max page size default 100, got %d", config.Crawler.MaxPageSize)
	}
}

func TestLoadMissingFile(t *testing.T) {
	config := DefaultConfig()
	if err := config.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for explicit missing config file")
	}
}
