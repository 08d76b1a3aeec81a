package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edubreuil/flashkeeper/internal/models"
	"github.com/edubreuil/flashkeeper/internal/records"
)

// FlashcardHandler handles HTTP requests for flashcard records.
type FlashcardHandler struct {
	Store *records.Store
}

// Create handles POST /api/flashcards. Inline media on either side is
// migrated into the media store in the background.
func (h *FlashcardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.Flashcard
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	card, err := h.Store.CreateFlashcard(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, card)
}

// List handles GET /api/flashcards, filtered by ?deckId= or ?themeId=.
func (h *FlashcardHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		cards []models.Flashcard
		err   error
	)
	switch {
	case r.URL.Query().Get("deckId") != "":
		cards, err = h.Store.FlashcardsByDeck(r.URL.Query().Get("deckId"))
	case r.URL.Query().Get("themeId") != "":
		cards, err = h.Store.FlashcardsByTheme(r.URL.Query().Get("themeId"))
	default:
		cards, err = h.Store.Flashcards()
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

// Get handles GET /api/flashcards/{id}. The stored form is returned:
// migrated sides carry reference ids, not payloads. ?hydrate=true
// re-inlines the media for display.
func (h *FlashcardHandler) Get(w http.ResponseWriter, r *http.Request) {
	card, err := h.Store.GetFlashcard(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if hydrated(r) {
		h.Store.HydrateFlashcard(r.Context(), card)
	}
	writeJSON(w, http.StatusOK, card)
}

// FlashcardUpdateRequest represents a partial flashcard update.
type FlashcardUpdateRequest struct {
	ThemeID      *string            `json:"themeId"`
	Front        *models.CardSide   `json:"front"`
	Back         *models.CardSide   `json:"back"`
	LastReviewed *int64             `json:"lastReviewed"`
	ReviewCount  *int               `json:"reviewCount"`
	Difficulty   *models.Difficulty `json:"difficulty"`
}

// Update handles PUT /api/flashcards/{id}.
func (h *FlashcardHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req FlashcardUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	card, err := h.Store.UpdateFlashcard(chi.URLParam(r, "id"), records.FlashcardUpdate{
		ThemeID:      req.ThemeID,
		Front:        req.Front,
		Back:         req.Back,
		LastReviewed: req.LastReviewed,
		ReviewCount:  req.ReviewCount,
		Difficulty:   req.Difficulty,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// Delete handles DELETE /api/flashcards/{id}. Media cleanup runs
// synchronously and a partial failure is reported in the response.
func (h *FlashcardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	res := h.Store.DeleteFlashcard(r.Context(), chi.URLParam(r, "id"))
	writeDeleteResult(w, res)
}
