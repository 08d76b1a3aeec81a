// Package http provides HTTP routing and middleware configuration
// for the flashcard record API.
package http

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/edubreuil/flashkeeper/internal/middleware"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs and returns an HTTP handler that serves the
// record store API. It applies request logging and session-based
// authentication, and mounts the account, deck, theme, flashcard,
// study session, sharing and maintenance endpoints under /api.
//
// The share-code resolution endpoint GET /import/{code} sits outside
// /api and outside the auth guard, so a recipient can inspect a shared
// deck before signing in.
//
// Middleware chain (applied in order):
//  1. WithRequestLogging(logger) — logs incoming requests
//  2. SessionAuth(auth)          — requires an active local session
func NewRouter(
	authHandler *AuthHandler,
	deckHandler *DeckHandler,
	themeHandler *ThemeHandler,
	flashcardHandler *FlashcardHandler,
	sessionHandler *SessionHandler,
	shareHandler *ShareHandler,
	maintenanceHandler *MaintenanceHandler,
	auth middleware.Authenticator,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))

	// Public share-code resolution
	r.Get("/import/{code}", shareHandler.Resolve)

	// Mount API routes
	r.Route("/api", func(r chi.Router) {
		// Only allow requests with Content-Type: application/json
		r.Use(chiMiddleware.AllowContentType("application/json"))
		// Enforce an active session for everything past register/login
		r.Use(middleware.SessionAuth(auth))

		// Public endpoints
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)

		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
		r.Put("/me", authHandler.UpdateProfile)

		r.Route("/decks", func(r chi.Router) {
			r.Post("/", deckHandler.Create)
			r.Get("/", deckHandler.List)
			r.Get("/{id}", deckHandler.Get)
			r.Put("/{id}", deckHandler.Update)
			r.Delete("/{id}", deckHandler.Delete)
			r.Post("/{id}/publish", deckHandler.Publish)
			r.Post("/{id}/unpublish", deckHandler.Unpublish)
			r.Get("/{id}/export", shareHandler.ExportDeck)
			r.Post("/{id}/share", shareHandler.ShareDeck)
		})

		r.Route("/themes", func(r chi.Router) {
			r.Post("/", themeHandler.Create)
			r.Get("/", themeHandler.List)
			r.Get("/{id}", themeHandler.Get)
			r.Put("/{id}", themeHandler.Update)
			r.Delete("/{id}", themeHandler.Delete)
		})

		r.Route("/flashcards", func(r chi.Router) {
			r.Post("/", flashcardHandler.Create)
			r.Get("/", flashcardHandler.List)
			r.Get("/{id}", flashcardHandler.Get)
			r.Put("/{id}", flashcardHandler.Update)
			r.Delete("/{id}", flashcardHandler.Delete)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", sessionHandler.Create)
			r.Get("/", sessionHandler.List)
			r.Put("/{id}", sessionHandler.Update)
		})

		r.Get("/export", shareHandler.ExportAll)
		r.Post("/import", shareHandler.ImportAll)
		r.Post("/import/deck", shareHandler.ImportDeck)
		r.Post("/import/deck/update", shareHandler.UpdateImportedDeck)

		r.Route("/maintenance", func(r chi.Router) {
			r.Post("/migrate", maintenanceHandler.Migrate)
			r.Post("/cleanup", maintenanceHandler.Cleanup)
			r.Get("/pending", maintenanceHandler.Pending)
			r.Get("/stats", maintenanceHandler.Stats)
			r.Get("/capacity", maintenanceHandler.Capacity)
			r.Post("/recompress", maintenanceHandler.Recompress)
			r.Get("/orphans", maintenanceHandler.Orphans)
			r.Post("/sweep", maintenanceHandler.Sweep)
		})
	})

	return r
}
