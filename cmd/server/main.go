package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alienxp03/parley/internal/config"
	"github.com/alienxp03/parley/internal/engine"
	"github.com/alienxp03/parley/internal/storage"
	"github.com/alienxp03/parley/web/handlers"
)

func main() {
	port := flag.Int("port", 0, "Server port (default from config, 8182)")
	dbPath := flag.String("db", "", "Database path (default: ~/.parley/parley.db)")
	cfgPath := flag.String("config", "", "Config file path (default: ~/.parley/config.yaml)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	// Load config
	path := *cfgPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Initialize slog
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel(),
	}
	if *debug {
		opts.Level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, opts))
	slog.SetDefault(logger)

	// Initialize storage
	db := *dbPath
	if db == "" {
		db = cfg.Storage.Path
	}
	if db == "" {
		db = storage.DefaultDBPath()
	}

	slog.Info("Initializing storage", "path", db)
	store, err := storage.NewSQLiteStorage(db)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.Initialize(); err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}

	// Initialize engine
	engineOpts, err := engine.OptionsFromConfig(cfg)
	if err != nil {
		slog.Error("Failed to configure engine", "error", err)
		os.Exit(1)
	}
	eng := engine.New(store, engineOpts...)

	// Start server
	if *port == 0 {
		*port = cfg.Server.Port
	}
	addr := fmt.Sprintf(":%d", *port)
	server := &http.Server{
		Addr:              addr,
		Handler:           handlers.New(eng, cfg).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Handle shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		slog.Info("Shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
			server.Close()
		}
	}()

	slog.Info("Starting parley server", "url", fmt.Sprintf("http://localhost%s", addr))
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
}
