// Package http provides HTTP handlers for local account management:
// registration, login, logout and profile updates.
package http

import (
	"encoding/json"
	"net/http"

	"github.com/edubreuil/flashkeeper/internal/models"
	"github.com/edubreuil/flashkeeper/internal/records"
)

// AuthHandler handles HTTP requests for the local account.
type AuthHandler struct {
	Store *records.Store
}

// RegisterRequest represents the JSON payload for user registration.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles user registration requests.
// It expects a JSON body with non-empty "username", "email" and
// "password" fields, creates the account and opens a session for it.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
		req.Username == "" || req.Email == "" || req.Password == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	user, err := h.Store.Register(req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// LoginRequest represents the JSON payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login opens a session for the matching account. Wrong credentials
// and unknown accounts are both reported as 401.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	user, err := h.Store.Login(req.Email, req.Password)
	if err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Logout closes the active session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Logout(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Me returns the signed-in user. With ?hydrate=true the avatar data
// URI is inlined into the response.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.Store.CurrentUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if hydrated(r) {
		h.Store.HydrateUser(r.Context(), user)
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateProfile merges the submitted fields into the signed-in user's
// profile. A new inline avatar is moved into the media store in the
// background.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.User
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	user, err := h.Store.UpdateProfile(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
