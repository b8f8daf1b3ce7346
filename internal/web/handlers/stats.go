package handlers

import (
	"log"
	"net/http"

	"github.com/mvasek/face-gallery/internal/database"
)

// StatsHandler serves gallery-wide aggregate counts.
type StatsHandler struct {
	store database.Store
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(store database.Store) *StatsHandler {
	return &StatsHandler{store: store}
}

// Get returns photo, face, and person totals.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GalleryStats(r.Context())
	if err != nil {
		log.Printf("gallery stats: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
