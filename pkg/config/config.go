package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the wallpaper crawler
type Config struct {
	// HTTP and paging policy for discovery calls
	Crawler CrawlerConfig `yaml:"crawler" json:"crawler"`

	// Caller-side throttling used when paging through every result
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Where saved cursors live
	Checkpoint CheckpointConfig `yaml:"checkpoint" json:"checkpoint"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// CrawlerConfig holds fetcher and dispatcher settings
type CrawlerConfig struct {
	Timeout              time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent            string        `yaml:"user_agent" json:"user_agent"`
	Referrer             string        `yaml:"referrer" json:"referrer"`
	DefaultPageSize      int           `yaml:"default_page_size" json:"default_page_size"`
	MaxPageSize          int           `yaml:"max_page_size" json:"max_page_size"`
	MaxConcurrentSources int           `yaml:"max_concurrent_sources" json:"max_concurrent_sources"`
	MaxRedirects         int           `yaml:"max_redirects" json:"max_redirects"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int `yaml:"burst_size" json:"burst_size"`
}

// CheckpointConfig holds cursor checkpoint configuration
type CheckpointConfig struct {
	Directory string `yaml:"directory" json:"directory"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`
	File       string `yaml:"file" json:"file"`
	MaxSize    int    `yaml:"max_size" json:"max_size"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAge     int    `yaml:"max_age" json:"max_age"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

const (
	// DefaultUserAgent is a desktop browser UA; several upstreams serve
	// stripped markup to unknown agents.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

	// DefaultReferrer is sent with every request
	DefaultReferrer = "https://www.google.com/"

	envPrefix = "WALLCRAWL_"
)

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Crawler: CrawlerConfig{
			Timeout:              15 * time.Second,
			UserAgent:            DefaultUserAgent,
			Referrer:             DefaultReferrer,
			DefaultPageSize:      20,
			MaxPageSize:          100,
			MaxConcurrentSources: 4,
			MaxRedirects:         10,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 30,
			BurstSize:         1,
		},
		Checkpoint: CheckpointConfig{
			Directory: "",
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "",
			MaxSize:    10,
			MaxBackups: 2,
			MaxAge:     28,
			Compress:   true,
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if userAgent := os.Getenv(envPrefix + "USER_AGENT"); userAgent != "" {
		c.Crawler.UserAgent = userAgent
	}
	if referrer := os.Getenv(envPrefix + "REFERRER"); referrer != "" {
		c.Crawler.Referrer = referrer
	}

	if timeout := os.Getenv(envPrefix + "TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid %sTIMEOUT: %w", envPrefix, err)
		}
		c.Crawler.Timeout = d
	}

	if pageSize := os.Getenv(envPrefix + "PAGE_SIZE"); pageSize != "" {
		val, err := strconv.Atoi(pageSize)
		if err != nil {
			return fmt.Errorf("invalid %sPAGE_SIZE: %w", envPrefix, err)
		}
		c.Crawler.DefaultPageSize = val
	}

	if rpm := os.Getenv(envPrefix + "REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}

	if dir := os.Getenv(envPrefix + "CHECKPOINT_DIR"); dir != "" {
		c.Checkpoint.Directory = dir
	}

	if logLevel := os.Getenv(envPrefix + "LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv(envPrefix + "LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".wallcrawl.yaml",
		".wallcrawl.yml",
		filepath.Join(home, ".config", "wallcrawl", "config.yaml"),
		filepath.Join(home, ".config", "wallcrawl", "config.yml"),
		filepath.Join(home, ".wallcrawl.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Crawler.Timeout <= 0 {
		errs = append(errs, errors.New("crawler timeout must be positive"))
	}
	if strings.TrimSpace(c.Crawler.UserAgent) == "" {
		errs = append(errs, errors.New("user agent is required"))
	}
	if c.Crawler.DefaultPageSize <= 0 {
		errs = append(errs, errors.New("default page size must be positive"))
	}
	if c.Crawler.MaxPageSize < c.Crawler.DefaultPageSize {
		errs = append(errs, errors.New("max page size must not be below the default page size"))
	}
	if c.Crawler.MaxConcurrentSources <= 0 {
		errs = append(errs, errors.New("max concurrent sources must be positive"))
	}
	if c.Crawler.MaxRedirects < 0 {
		errs = append(errs, errors.New("max redirects cannot be negative"))
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.RateLimit.BurstSize <= 0 {
		errs = append(errs, errors.New("burst size must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if timeout, ok := flags["timeout"].(time.Duration); ok && timeout > 0 {
		c.Crawler.Timeout = timeout
	}
	if userAgent, ok := flags["user-agent"].(string); ok && userAgent != "" {
		c.Crawler.UserAgent = userAgent
	}
	if pageSize, ok := flags["page-size"].(int); ok && pageSize > 0 {
		c.Crawler.DefaultPageSize = pageSize
	}
	if concurrent, ok := flags["concurrent"].(int); ok && concurrent > 0 {
		c.Crawler.MaxConcurrentSources = concurrent
	}
	if rpm, ok := flags["requests-per-minute"].(int); ok && rpm > 0 {
		c.RateLimit.RequestsPerMinute = rpm
	}
	if dir, ok := flags["checkpoint-dir"].(string); ok && dir != "" {
		c.Checkpoint.Directory = dir
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".wallcrawl.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
