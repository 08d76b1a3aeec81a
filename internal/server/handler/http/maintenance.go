package http

import (
	"net/http"

	"github.com/edubreuil/flashkeeper/internal/maintenance"
	"github.com/edubreuil/flashkeeper/internal/migrate"
	"github.com/edubreuil/flashkeeper/internal/records"
)

// MaintenanceHandler exposes the migration engine, storage statistics
// and the orphan sweeper.
type MaintenanceHandler struct {
	Store   *records.Store
	Engine  *migrate.Engine
	Sweeper *maintenance.Sweeper
}

// Migrate handles POST /api/maintenance/migrate, moving every inline
// media payload into the media store in rate-limited batches.
func (h *MaintenanceHandler) Migrate(w http.ResponseWriter, r *http.Request) {
	migrated, err := h.Engine.MigrateAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"migrated": migrated})
}

// Cleanup handles POST /api/maintenance/cleanup, dropping inline
// payloads whose media store copy is confirmed present.
func (h *MaintenanceHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	cleaned, err := h.Engine.Cleanup(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"cleaned": cleaned})
}

// Pending handles GET /api/maintenance/pending, counting flashcards
// that still carry un-migrated inline media.
func (h *MaintenanceHandler) Pending(w http.ResponseWriter, r *http.Request) {
	pending, err := h.Engine.Pending()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"pending": pending})
}

// Stats handles GET /api/maintenance/stats, combining inline-media
// estimates with blob store measurements.
func (h *MaintenanceHandler) Stats(w http.ResponseWriter, r *http.Request) {
	inline, err := h.Engine.Stats()
	if err != nil {
		writeError(w, err)
		return
	}
	blobs, err := h.Store.Media().Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"inline": inline,
		"media":  blobs,
	})
}

// Capacity handles GET /api/maintenance/capacity, reporting combined
// record and media usage against the quota.
func (h *MaintenanceHandler) Capacity(w http.ResponseWriter, r *http.Request) {
	usage, err := h.Store.Media().Capacity(r.Context(), h.Store.DocumentSize())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, usage)
}

// Recompress handles POST /api/maintenance/recompress, moving blobs
// stored uncompressed into the compressed collection.
func (h *MaintenanceHandler) Recompress(w http.ResponseWriter, r *http.Request) {
	moved, err := h.Engine.Recompress(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"recompressed": moved})
}

// Orphans handles GET /api/maintenance/orphans, counting blobs no
// record references.
func (h *MaintenanceHandler) Orphans(w http.ResponseWriter, r *http.Request) {
	count, err := h.Sweeper.CountOrphans(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"orphans": count})
}

// Sweep handles POST /api/maintenance/sweep, deleting orphaned blobs.
func (h *MaintenanceHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	removed, err := h.Sweeper.Sweep(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}
