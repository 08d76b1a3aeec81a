package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edubreuil/flashkeeper/internal/models"
	"github.com/edubreuil/flashkeeper/internal/records"
)

// SessionHandler handles HTTP requests for study session records.
type SessionHandler struct {
	Store *records.Store
}

// Create handles POST /api/sessions, opening a study run.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.StudySession
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DeckID == "" {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	session, err := h.Store.CreateStudySession(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// List handles GET /api/sessions, filtered by ?deckId= or ?userId=.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		sessions []models.StudySession
		err      error
	)
	if deckID := r.URL.Query().Get("deckId"); deckID != "" {
		sessions, err = h.Store.SessionsByDeck(deckID)
	} else {
		sessions, err = h.Store.SessionsByUser(r.URL.Query().Get("userId"))
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// SessionUpdateRequest represents a partial study session update,
// typically closing the run with results.
type SessionUpdateRequest struct {
	EndTime          *int64 `json:"endTime"`
	CardsReviewed    *int   `json:"cardsReviewed"`
	CorrectAnswers   *int   `json:"correctAnswers"`
	IncorrectAnswers *int   `json:"incorrectAnswers"`
}

// Update handles PUT /api/sessions/{id}.
func (h *SessionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req SessionUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	session, err := h.Store.UpdateStudySession(chi.URLParam(r, "id"), records.StudySessionUpdate{
		EndTime:          req.EndTime,
		CardsReviewed:    req.CardsReviewed,
		CorrectAnswers:   req.CorrectAnswers,
		IncorrectAnswers: req.IncorrectAnswers,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}
