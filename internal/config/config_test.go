package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("PORT", "")
	t.Setenv("MAX_CHUNKS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "5000" {
		t.Errorf("expected port 5000, got %q", cfg.Port)
	}
	if cfg.MaxPromptChars != 8000 {
		t.Errorf("expected max prompt chars 8000, got %d", cfg.MaxPromptChars)
	}
	if cfg.ChunkRetries != 2 {
		t.Errorf("expected 2 chunk retries, got %d", cfg.ChunkRetries)
	}
	if cfg.MaxRetryWait != 10*time.Second {
		t.Errorf("expected max retry wait 10s, got %s", cfg.MaxRetryWait)
	}
	if cfg.APICallDelay != 500*time.Millisecond {
		t.Errorf("expected api call delay 500ms, got %s", cfg.APICallDelay)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("PORT", "9000")
	t.Setenv("MAX_CHUNKS", "7")
	t.Setenv("RETRY_BASE_WAIT", "1s")
	t.Setenv("API_CALL_DELAY", "0s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9000" {
		t.Errorf("expected port 9000, got %q", cfg.Port)
	}
	if cfg.MaxChunks != 7 {
		t.Errorf("expected max chunks 7, got %d", cfg.MaxChunks)
	}
	if cfg.RetryBaseWait != time.Second {
		t.Errorf("expected retry base wait 1s, got %s", cfg.RetryBaseWait)
	}
	if cfg.APICallDelay != 0 {
		t.Errorf("expected zero api call delay, got %s", cfg.APICallDelay)
	}
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("MAX_CHUNKS", "not-a-number")
	t.Setenv("MAX_CONCURRENT_RUNS", "-3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxChunks != 100 {
		t.Errorf("expected fallback max chunks 100, got %d", cfg.MaxChunks)
	}
	if cfg.MaxConcurrentRuns != 4 {
		t.Errorf("expected floor max concurrent runs 4, got %d", cfg.MaxConcurrentRuns)
	}
}

func TestLoad_ConfigFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "qagen.yaml")
	body := "port: \"7000\"\nmax_chunks: 12\nmax_retry_wait: 4s\ndocument_path: ./doc.md\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "")
	t.Setenv("MAX_CHUNKS", "20")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "7000" {
		t.Errorf("expected port from file 7000, got %q", cfg.Port)
	}
	if cfg.MaxChunks != 20 {
		t.Errorf("expected env to win with 20, got %d", cfg.MaxChunks)
	}
	if cfg.MaxRetryWait != 4*time.Second {
		t.Errorf("expected max retry wait 4s, got %s", cfg.MaxRetryWait)
	}
	if cfg.DocumentPath != "./doc.md" {
		t.Errorf("expected document path from file, got %q", cfg.DocumentPath)
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err == nil {
		t.Error("expected error without ANTHROPIC_API_KEY")
	}

	cfg.AnthropicAPIKey = "sk-test"
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}

	cfg.MaxRetryWait = time.Second
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when max retry wait is below base wait")
	}
}

func TestSlogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		cfg := Config{LogLevel: in}
		if got := cfg.SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
