package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edubreuil/flashkeeper/internal/models"
	"github.com/edubreuil/flashkeeper/internal/records"
)

// ThemeHandler handles HTTP requests for theme records.
type ThemeHandler struct {
	Store *records.Store
}

// Create handles POST /api/themes.
func (h *ThemeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.Theme
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DeckID == "" {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	theme, err := h.Store.CreateTheme(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, theme)
}

// List handles GET /api/themes?deckId=.
func (h *ThemeHandler) List(w http.ResponseWriter, r *http.Request) {
	themes, err := h.Store.ThemesByDeck(r.URL.Query().Get("deckId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, themes)
}

// Get handles GET /api/themes/{id}. ?hydrate=true re-inlines the
// cover image.
func (h *ThemeHandler) Get(w http.ResponseWriter, r *http.Request) {
	theme, err := h.Store.GetTheme(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if hydrated(r) {
		h.Store.HydrateTheme(r.Context(), theme)
	}
	writeJSON(w, http.StatusOK, theme)
}

// ThemeUpdateRequest represents a partial theme update.
type ThemeUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	CoverImage  *string `json:"coverImage"`
}

// Update handles PUT /api/themes/{id}.
func (h *ThemeHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req ThemeUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	theme, err := h.Store.UpdateTheme(chi.URLParam(r, "id"), records.ThemeUpdate{
		Title:       req.Title,
		Description: req.Description,
		CoverImage:  req.CoverImage,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, theme)
}

// Delete handles DELETE /api/themes/{id}.
func (h *ThemeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	res := h.Store.DeleteTheme(r.Context(), chi.URLParam(r, "id"))
	writeDeleteResult(w, res)
}
