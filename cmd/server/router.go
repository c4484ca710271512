package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	apiMiddleware "github.com/phrazzld/recite-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	r.Route("/api", func(r chi.Router) {
		// Recite list endpoints
		r.Get("/recite", app.reciteHandler.ListItems)
		r.Post("/recite", app.reciteHandler.AddItem)
		r.Delete("/recite", app.reciteHandler.RemoveItem)
		r.Post("/recite/review", app.reciteHandler.MarkReviewed)
		r.Post("/recite/strategy", app.reciteHandler.ChangeStrategy)
		r.Get("/recite/due", app.reciteHandler.ListDueChapters)
		r.Get("/recite/all", app.reciteHandler.ListTrackedChapters)

		// Strategy discovery
		r.Get("/strategies", app.reciteHandler.ListStrategies)

		// Book content endpoints
		r.Get("/books", app.bookHandler.ListBooks)
		r.Post("/books", app.bookHandler.SaveBook)
		r.Get("/books/{name}", app.bookHandler.GetBook)
		r.Get("/chapters", app.bookHandler.ListAllChapters)

		// Text segmentation
		r.Post("/process", app.processHandler.ProcessText)
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte("OK"))
		if err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
