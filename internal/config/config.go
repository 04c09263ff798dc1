package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`

	// Auth for /api routes. Empty disables it.
	APIKey string `yaml:"-"`

	// Claude generation
	AnthropicAPIKey   string        `yaml:"-"`
	AnthropicModel    string        `yaml:"anthropic_model"`
	MaxTokens         int           `yaml:"max_tokens"`
	APITimeout        time.Duration `yaml:"api_timeout"`
	APICallDelay      time.Duration `yaml:"api_call_delay"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`

	// Document
	DocumentPath         string `yaml:"document_path"`
	MaxPromptChars       int    `yaml:"max_prompt_chars"`
	PDFFallbackPdftotext bool   `yaml:"pdf_fallback_pdftotext"`

	// Chunked generation
	MaxChunks     int           `yaml:"max_chunks"`
	ChunkRetries  int           `yaml:"chunk_retries"`
	RetryBaseWait time.Duration `yaml:"retry_base_wait"`
	MaxRetryWait  time.Duration `yaml:"max_retry_wait"`

	// Request handling
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	MaxConcurrentRuns int           `yaml:"max_concurrent_runs"`
	RunTTL            time.Duration `yaml:"run_ttl"`

	LogLevel string `yaml:"log_level"`
}

// Defaults returns the built-in configuration before any file or env overrides.
func Defaults() Config {
	return Config{
		Host: "0.0.0.0",
		Port: "5000",

		AnthropicModel: "claude-sonnet-4-20250514",
		MaxTokens:      2000,
		APITimeout:     60 * time.Second,
		APICallDelay:   500 * time.Millisecond,

		DocumentPath:         "./example_document.pdf",
		MaxPromptChars:       8000,
		PDFFallbackPdftotext: true,

		MaxChunks:     100,
		ChunkRetries:  2,
		RetryBaseWait: 2 * time.Second,
		MaxRetryWait:  10 * time.Second,

		RequestTimeout:    300 * time.Second,
		MaxConcurrentRuns: 4,
		RunTTL:            1 * time.Hour,

		LogLevel: "info",
	}
}

// Load builds the configuration from defaults, the optional YAML file named by
// CONFIG_FILE, and finally the environment.
func Load() (Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	cfg.Host = envOr("HOST", cfg.Host)
	cfg.Port = envOr("PORT", cfg.Port)

	cfg.APIKey = os.Getenv("API_KEY")

	cfg.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	cfg.AnthropicModel = envOr("ANTHROPIC_MODEL", cfg.AnthropicModel)
	cfg.MaxTokens = envInt("MAX_TOKENS", cfg.MaxTokens)
	cfg.APITimeout = envDuration("API_TIMEOUT", cfg.APITimeout)
	cfg.APICallDelay = envDuration("API_CALL_DELAY", cfg.APICallDelay)
	cfg.RequestsPerMinute = envInt("REQUESTS_PER_MINUTE", cfg.RequestsPerMinute)

	cfg.DocumentPath = envOr("DOCUMENT_PATH", cfg.DocumentPath)
	cfg.MaxPromptChars = envInt("MAX_PROMPT_CHARS", cfg.MaxPromptChars)
	cfg.PDFFallbackPdftotext = envBool("PDF_FALLBACK_PDFTOTEXT", cfg.PDFFallbackPdftotext)

	cfg.MaxChunks = envInt("MAX_CHUNKS", cfg.MaxChunks)
	cfg.ChunkRetries = envInt("CHUNK_RETRIES", cfg.ChunkRetries)
	cfg.RetryBaseWait = envDuration("RETRY_BASE_WAIT", cfg.RetryBaseWait)
	cfg.MaxRetryWait = envDuration("MAX_RETRY_WAIT", cfg.MaxRetryWait)

	cfg.RequestTimeout = envDuration("REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.MaxConcurrentRuns = envInt("MAX_CONCURRENT_RUNS", cfg.MaxConcurrentRuns)
	cfg.RunTTL = envDuration("RUN_TTL", cfg.RunTTL)

	cfg.LogLevel = envOr("LOG_LEVEL", cfg.LogLevel)

	cfg.applyFloors()
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// applyFloors resets nonsensical values to their defaults.
func (c *Config) applyFloors() {
	d := Defaults()
	if c.MaxTokens <= 0 {
		c.MaxTokens = d.MaxTokens
	}
	if c.APITimeout <= 0 {
		c.APITimeout = d.APITimeout
	}
	if c.APICallDelay < 0 {
		c.APICallDelay = 0
	}
	if c.RequestsPerMinute < 0 {
		c.RequestsPerMinute = 0
	}
	if c.MaxPromptChars <= 0 {
		c.MaxPromptChars = d.MaxPromptChars
	}
	if c.MaxChunks <= 0 {
		c.MaxChunks = d.MaxChunks
	}
	if c.ChunkRetries < 0 {
		c.ChunkRetries = d.ChunkRetries
	}
	if c.RetryBaseWait <= 0 {
		c.RetryBaseWait = d.RetryBaseWait
	}
	if c.MaxRetryWait <= 0 {
		c.MaxRetryWait = d.MaxRetryWait
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = d.RequestTimeout
	}
	if c.MaxConcurrentRuns <= 0 {
		c.MaxConcurrentRuns = d.MaxConcurrentRuns
	}
	if c.RunTTL <= 0 {
		c.RunTTL = d.RunTTL
	}
}

func (c Config) Validate() error {
	if c.AnthropicAPIKey == "" {
		return errors.New("ANTHROPIC_API_KEY is required")
	}
	if c.DocumentPath == "" {
		return errors.New("DOCUMENT_PATH must not be empty")
	}
	if c.MaxRetryWait < c.RetryBaseWait {
		return fmt.Errorf("MAX_RETRY_WAIT (%s) must be >= RETRY_BASE_WAIT (%s)", c.MaxRetryWait, c.RetryBaseWait)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return c.Host + ":" + c.Port
}

// SlogLevel maps LogLevel onto a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
