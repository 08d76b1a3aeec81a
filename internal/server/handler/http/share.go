package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edubreuil/flashkeeper/internal/middleware"
	"github.com/edubreuil/flashkeeper/internal/models"
	"github.com/edubreuil/flashkeeper/internal/records"
	"github.com/edubreuil/flashkeeper/internal/share"
)

// ShareHandler handles HTTP requests for export, import and deck
// sharing.
type ShareHandler struct {
	Store *records.Store
	Codec *share.Codec

	// Origin is the base URL prefix used when building share links.
	Origin string
}

// ExportAll handles GET /api/export, returning a full-dataset
// snapshot. Pending media migrations are flushed first so the snapshot
// carries settled reference fields.
func (h *ShareHandler) ExportAll(w http.ResponseWriter, r *http.Request) {
	h.Store.Flush()
	doc, err := h.Codec.ExportAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// ImportAll handles POST /api/import. The document is validated before
// anything is written; an invalid payload changes nothing.
func (h *ShareHandler) ImportAll(w http.ResponseWriter, r *http.Request) {
	var doc models.ExportDocument
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	if err := h.Codec.ImportAll(r.Context(), &doc); err != nil {
		http.Error(w, "invalid export document", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ExportDeck handles GET /api/decks/{id}/export, returning a
// single-deck snapshot under fresh ids.
func (h *ShareHandler) ExportDeck(w http.ResponseWriter, r *http.Request) {
	h.Store.Flush()
	export, err := h.Codec.ExportDeck(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, export)
}

// ShareDeckRequest represents the JSON payload for creating a share
// code.
type ShareDeckRequest struct {
	ExpiryDays int `json:"expiryDays"`
}

// ShareDeck handles POST /api/decks/{id}/share, minting a share code
// and the import link for it.
func (h *ShareHandler) ShareDeck(w http.ResponseWriter, r *http.Request) {
	var req ShareDeckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ExpiryDays <= 0 {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	code, err := h.Store.CreateShareCode(chi.URLParam(r, "id"), req.ExpiryDays)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"code": code,
		"url":  share.ShareURL(h.Origin, code),
	})
}

// Resolve handles GET /import/{code}. A valid, unexpired code resolves
// to a deck export ready for import; an expired code is removed on
// this read and reported as 404.
func (h *ShareHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	deck, err := h.Store.ResolveShareCode(chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, err)
		return
	}

	export, err := h.Codec.ExportDeck(deck.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, export)
}

// ImportDeck handles POST /api/import/deck, creating a new deck owned
// by the signed-in user from a shared export.
func (h *ShareHandler) ImportDeck(w http.ResponseWriter, r *http.Request) {
	var export models.SharedDeckExport
	if err := json.NewDecoder(r.Body).Decode(&export); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	userID := middleware.GetUserIDFromContext(r.Context())
	deckID, err := h.Codec.ImportDeck(r.Context(), &export, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"deckId": deckID})
}

// UpdateImportedDeck handles POST /api/import/deck/update, refreshing
// a previously imported deck from a newer export of the same original.
func (h *ShareHandler) UpdateImportedDeck(w http.ResponseWriter, r *http.Request) {
	var export models.SharedDeckExport
	if err := json.NewDecoder(r.Body).Decode(&export); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	found, err := h.Codec.UpdateImportedDeck(r.Context(), &export)
	if err != nil {
		writeError(w, err)
		return
	}
	if !found {
		http.Error(w, "no imported deck for original", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
