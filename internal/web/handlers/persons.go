package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/mvasek/face-gallery/internal/database"
	"github.com/mvasek/face-gallery/internal/names"
	"github.com/mvasek/face-gallery/internal/recognize"
)

// PersonsHandler handles person listing and the administrative rename and
// merge operations.
type PersonsHandler struct {
	store   database.Store
	service *recognize.Service
}

// NewPersonsHandler creates a new persons handler.
func NewPersonsHandler(store database.Store, service *recognize.Service) *PersonsHandler {
	return &PersonsHandler{store: store, service: service}
}

type personView struct {
	database.Person
	CoverFaceID *int64 `json:"cover_face_id,omitempty"`
}

// List returns all active persons with photo and face counts. The optional
// "q" query filters by name, diacritics insensitive.
func (h *PersonsHandler) List(w http.ResponseWriter, r *http.Request) {
	persons, err := h.store.ActivePersons(r.Context())
	if err != nil {
		log.Printf("list persons: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list persons")
		return
	}

	query := r.URL.Query().Get("q")
	views := make([]personView, 0, len(persons))
	for _, p := range persons {
		if !names.Matches(p.Name, query) {
			continue
		}
		view := personView{Person: p}
		faces, err := h.store.FacesOfPerson(r.Context(), p.ID)
		if err != nil {
			log.Printf("faces of person %d: %v", p.ID, err)
			respondError(w, http.StatusInternalServerError, "failed to list persons")
			return
		}
		if rep := database.RepresentativeFace(faces); rep != nil {
			view.CoverFaceID = &rep.ID
		}
		views = append(views, view)
	}

	respondJSON(w, http.StatusOK, map[string]any{"persons": views})
}

// Get returns one person. Merged persons resolve with a pointer at their
// survivor so stale client links keep working.
func (h *PersonsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := idParam(w, r, "id")
	if id == 0 {
		return
	}

	person, err := h.store.GetPerson(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "person not found")
		return
	}
	if err != nil {
		log.Printf("get person %d: %v", id, err)
		respondError(w, http.StatusInternalServerError, "failed to load person")
		return
	}

	respondJSON(w, http.StatusOK, person)
}

// Photos returns the photos a person appears in.
func (h *PersonsHandler) Photos(w http.ResponseWriter, r *http.Request) {
	id := idParam(w, r, "id")
	if id == 0 {
		return
	}

	if _, err := h.store.GetPerson(r.Context(), id); errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "person not found")
		return
	} else if err != nil {
		log.Printf("get person %d: %v", id, err)
		respondError(w, http.StatusInternalServerError, "failed to load person")
		return
	}

	faces, err := h.store.FacesOfPerson(r.Context(), id)
	if err != nil {
		log.Printf("faces of person %d: %v", id, err)
		respondError(w, http.StatusInternalServerError, "failed to load photos")
		return
	}

	seen := make(map[int64]bool)
	var photos []database.Photo
	for _, f := range faces {
		if seen[f.PhotoID] {
			continue
		}
		seen[f.PhotoID] = true
		photo, err := h.store.GetPhoto(r.Context(), f.PhotoID)
		if err != nil {
			log.Printf("get photo %d: %v", f.PhotoID, err)
			continue
		}
		photos = append(photos, *photo)
	}

	respondJSON(w, http.StatusOK, map[string]any{"photos": photos})
}

// Rename sets a person's display name.
func (h *PersonsHandler) Rename(w http.ResponseWriter, r *http.Request) {
	id := idParam(w, r, "id")
	if id == 0 {
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	err := h.service.RenamePerson(r.Context(), id, req.Name)
	switch {
	case errors.Is(err, recognize.ErrEmptyName):
		respondError(w, http.StatusBadRequest, "name must not be empty")
	case errors.Is(err, database.ErrNotFound):
		respondError(w, http.StatusNotFound, "person not found")
	case err != nil:
		log.Printf("rename person %d: %v", id, err)
		respondError(w, http.StatusInternalServerError, "failed to rename person")
	default:
		respondJSON(w, http.StatusOK, map[string]any{"renamed": id})
	}
}

// Merge consolidates one person into another.
func (h *PersonsHandler) Merge(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SurvivorID int64 `json:"survivor_id"`
		AbsorbedID int64 `json:"absorbed_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.SurvivorID <= 0 || req.AbsorbedID <= 0 {
		respondError(w, http.StatusBadRequest, "survivor_id and absorbed_id are required")
		return
	}

	err := h.service.MergePersons(r.Context(), req.SurvivorID, req.AbsorbedID)
	switch {
	case errors.Is(err, recognize.ErrSelfMerge):
		respondError(w, http.StatusBadRequest, "cannot merge a person into itself")
	case errors.Is(err, recognize.ErrPersonMerged):
		respondError(w, http.StatusConflict, "person has already been merged")
	case errors.Is(err, database.ErrNotFound):
		respondError(w, http.StatusNotFound, "person not found")
	case err != nil:
		log.Printf("merge person %d into %d: %v", req.AbsorbedID, req.SurvivorID, err)
		respondError(w, http.StatusInternalServerError, "failed to merge persons")
	default:
		respondJSON(w, http.StatusOK, map[string]any{
			"survivor": req.SurvivorID,
			"absorbed": req.AbsorbedID,
		})
	}
}
