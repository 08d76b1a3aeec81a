// Package http provides HTTP handlers exposing the record store,
// migration engine and sharing codec over a JSON API.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/edubreuil/flashkeeper/internal/records"
)

// writeJSON encodes v into the response with the JSON content type.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps store errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, records.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, records.ErrNotAuthenticated):
		http.Error(w, "not authenticated", http.StatusUnauthorized)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// writeDeleteResult reports the outcome of a record delete, including
// partial media cleanup, so clients can surface it.
func writeDeleteResult(w http.ResponseWriter, res records.DeleteResult) {
	switch res.Outcome {
	case records.DeleteNotFound:
		http.Error(w, "not found", http.StatusNotFound)
	case records.DeletedMediaFailed:
		writeJSON(w, http.StatusOK, map[string]string{
			"status":       "ok",
			"mediaCleanup": "partial",
		})
	default:
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// hydrated reports whether the request asked for media to be inlined
// into the response.
func hydrated(r *http.Request) bool {
	return r.URL.Query().Get("hydrate") == "true"
}
