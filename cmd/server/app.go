package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/recite-api/internal/api"
	"github.com/phrazzld/recite-api/internal/config"
	"github.com/phrazzld/recite-api/internal/generation"
	"github.com/phrazzld/recite-api/internal/platform/gemini"
	"github.com/phrazzld/recite-api/internal/platform/logger"
	"github.com/phrazzld/recite-api/internal/platform/sqlite"
	"github.com/phrazzld/recite-api/internal/service"
)

// application holds the shared dependencies for the server. All handlers
// and services are wired once at startup and reused for every request.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	reciteService service.ReciteService
	bookService   service.BookService
	splitter      generation.ChapterSplitter

	reciteHandler  *api.ReciteHandler
	bookHandler    *api.BookHandler
	processHandler *api.ProcessHandler
}

// initializeApp loads configuration and constructs the full dependency
// graph: logger, database, stores, services, and HTTP handlers.
func initializeApp() (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := runMigrations(db, log); err != nil {
		closeQuietly(db, log)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	itemStore := sqlite.NewReciteStore(db, log)
	bookStore := sqlite.NewBookStore(db, log)

	app := &application{
		config:        cfg,
		logger:        log,
		db:            db,
		reciteService: service.NewReciteService(db, itemStore, bookStore, log),
		bookService:   service.NewBookService(bookStore, log),
	}

	// The splitter is optional: without an API key the /api/process
	// endpoint answers 503 while everything else keeps working.
	if cfg.LLM.Enabled() {
		splitter, err := gemini.NewGeminiSplitter(context.Background(), log, cfg.LLM)
		if err != nil {
			closeQuietly(db, log)
			return nil, fmt.Errorf("failed to create chapter splitter: %w", err)
		}
		app.splitter = splitter
	} else {
		log.Warn("Gemini API key not configured, text processing disabled")
	}

	app.reciteHandler = api.NewReciteHandler(app.reciteService, log)
	app.bookHandler = api.NewBookHandler(app.bookService, log)
	app.processHandler = api.NewProcessHandler(app.splitter, log)

	return app, nil
}

// cleanup releases resources held by the application.
func (app *application) cleanup() {
	if app.db != nil {
		closeQuietly(app.db, app.logger)
		app.db = nil
	}
}

func closeQuietly(db *sql.DB, log *slog.Logger) {
	if err := db.Close(); err != nil {
		log.Error("Failed to close database", "error", err)
	}
}
