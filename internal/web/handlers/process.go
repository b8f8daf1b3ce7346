package handlers

import (
	"log"
	"net/http"

	"github.com/mvasek/face-gallery/internal/recognize"
)

// ProcessHandler exposes the batch operations of the resolution engine.
type ProcessHandler struct {
	service *recognize.Service
}

// NewProcessHandler creates a new process handler.
func NewProcessHandler(service *recognize.Service) *ProcessHandler {
	return &ProcessHandler{service: service}
}

// Regroup clusters all currently unassigned faces into new persons without
// touching existing assignments.
func (h *ProcessHandler) Regroup(w http.ResponseWriter, r *http.Request) {
	created, err := h.service.GroupUnassigned(r.Context())
	if err != nil {
		log.Printf("regroup: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to regroup faces")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"persons_created": created})
}

// Reprocess drops every assignment and merge flag and rebuilds all identities
// from scratch. Destructive; the admin token is the only guard.
func (h *ProcessHandler) Reprocess(w http.ResponseWriter, r *http.Request) {
	created, err := h.service.ReprocessAll(r.Context())
	if err != nil {
		log.Printf("reprocess: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to reprocess")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"persons_created": created})
}
