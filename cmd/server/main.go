// Package main is the entry point for the library records server.
//
// main only reads configuration, builds the logger and starts the server.
// Everything else lives under internal/.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sakif/library-records/internal/config"
	"github.com/sakif/library-records/internal/server"
)

func main() {
	configPath := flag.String("config", os.Getenv("LIBRARY_CONFIG"), "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := config.InitLogger(cfg, os.Stdout)

	// ":memory:" has no directory to create.
	if dbDir := filepath.Dir(cfg.DBPath); cfg.DBPath != ":memory:" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0o755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start blocks until SIGINT/SIGTERM or a listen error.
	if err := srv.Start(ctx); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
