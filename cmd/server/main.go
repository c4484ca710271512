// Package main implements the entry point for the recite API server,
// which tracks book chapters under spaced-repetition review schedules
// and provides LLM integration for splitting raw text into chapters.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
)

// main is the entry point for the recite-api server.
// It initializes configuration, sets up logging, opens the database,
// runs migrations, wires dependencies, and starts the HTTP server.
func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

// run contains the actual startup sequence so that main stays a thin
// wrapper around a single error return.
func run() error {
	app, err := initializeApp()
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.cleanup()

	slog.Info("Server configuration loaded",
		"port", app.config.Server.Port,
		"log_level", app.config.Server.LogLevel,
		"database_path", app.config.Database.Path,
		"llm_enabled", app.config.LLM.Enabled())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return err
	}

	return nil
}
