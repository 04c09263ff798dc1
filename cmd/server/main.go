package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dgallion1/qagen/internal/api"
	"github.com/dgallion1/qagen/internal/config"
	"github.com/dgallion1/qagen/internal/extract"
	"github.com/dgallion1/qagen/internal/metrics"
	"github.com/dgallion1/qagen/internal/parser"
	"github.com/dgallion1/qagen/internal/pipeline"
	"github.com/dgallion1/qagen/internal/sampledoc"
)

func main() {
	// A missing .env is normal outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load the document.
	if strings.EqualFold(filepath.Ext(cfg.DocumentPath), ".pdf") {
		created, err := sampledoc.Ensure(cfg.DocumentPath)
		if err != nil {
			log.Error("failed to create example document", "path", cfg.DocumentPath, "error", err)
			os.Exit(1)
		}
		if created {
			log.Info("created example document", "path", cfg.DocumentPath)
		}
	}
	text, err := parser.ExtractFile(cfg.DocumentPath, parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext})
	if err != nil {
		log.Error("failed to load document", "path", cfg.DocumentPath, "error", err)
		os.Exit(1)
	}
	log.Info("document loaded", "path", cfg.DocumentPath, "chars", len([]rune(text)))

	// Initialize clients.
	m := metrics.New()
	claude := extract.NewClaudeClient(extract.ClientOptions{
		APIKey:            cfg.AnthropicAPIKey,
		Model:             cfg.AnthropicModel,
		MaxTokens:         cfg.MaxTokens,
		Timeout:           cfg.APITimeout,
		RequestsPerMinute: cfg.RequestsPerMinute,
	})

	session := pipeline.NewSession(cfg.DocumentPath, text, claude, pipeline.OptionsFromConfig(cfg), log, m)
	session.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(session, claude, m, log, cfg)

	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warn("http shutdown", "error", err)
		}

		session.Stop()
		claude.Close()
	}()

	log.Info("starting qagen", "addr", cfg.Addr(), "model", cfg.AnthropicModel)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
