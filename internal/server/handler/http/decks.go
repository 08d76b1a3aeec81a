package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edubreuil/flashkeeper/internal/models"
	"github.com/edubreuil/flashkeeper/internal/records"
)

// DeckHandler handles HTTP requests for deck records.
type DeckHandler struct {
	Store *records.Store
}

// Create handles POST /api/decks. The body is a deck; an inline cover
// image is migrated into the media store in the background, so the
// response may still carry the inline form without a cover id.
func (h *DeckHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.Deck
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	deck, err := h.Store.CreateDeck(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, deck)
}

// List handles GET /api/decks. ?userId= filters by author,
// ?imported=true lists decks imported from share exports.
func (h *DeckHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		decks []models.Deck
		err   error
	)
	switch {
	case r.URL.Query().Get("imported") == "true":
		decks, err = h.Store.ImportedDecks()
	case r.URL.Query().Get("userId") != "":
		decks, err = h.Store.DecksByUser(r.URL.Query().Get("userId"))
	default:
		decks, err = h.Store.Decks()
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, decks)
}

// Get handles GET /api/decks/{id}. With ?hydrate=true the cover image
// is re-inlined as a data URI.
func (h *DeckHandler) Get(w http.ResponseWriter, r *http.Request) {
	deck, err := h.Store.GetDeck(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if hydrated(r) {
		h.Store.HydrateDeck(r.Context(), deck)
	}
	writeJSON(w, http.StatusOK, deck)
}

// DeckUpdateRequest represents a partial deck update. Absent fields
// leave the stored value untouched.
type DeckUpdateRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	CoverImage  *string  `json:"coverImage"`
	Tags        []string `json:"tags"`
	IsPublic    *bool    `json:"isPublic"`
	IsPublished *bool    `json:"isPublished"`
}

// Update handles PUT /api/decks/{id}.
func (h *DeckHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req DeckUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	deck, err := h.Store.UpdateDeck(chi.URLParam(r, "id"), records.DeckUpdate{
		Title:       req.Title,
		Description: req.Description,
		CoverImage:  req.CoverImage,
		Tags:        req.Tags,
		IsPublic:    req.IsPublic,
		IsPublished: req.IsPublished,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deck)
}

// Publish handles POST /api/decks/{id}/publish.
func (h *DeckHandler) Publish(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.PublishDeck(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Unpublish handles POST /api/decks/{id}/unpublish.
func (h *DeckHandler) Unpublish(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.UnpublishDeck(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Delete handles DELETE /api/decks/{id}, cascading over the deck's
// themes, flashcards and media.
func (h *DeckHandler) Delete(w http.ResponseWriter, r *http.Request) {
	res := h.Store.DeleteDeck(r.Context(), chi.URLParam(r, "id"))
	writeDeleteResult(w, res)
}
