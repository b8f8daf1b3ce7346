package handlers

import (
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/mvasek/face-gallery/internal/database"
)

// PhotosHandler handles photo listing, detail, and file endpoints.
type PhotosHandler struct {
	store     database.Store
	uploadDir string
}

// NewPhotosHandler creates a new photos handler.
func NewPhotosHandler(store database.Store, uploadDir string) *PhotosHandler {
	return &PhotosHandler{store: store, uploadDir: uploadDir}
}

// List returns a page of photos, newest first pagination via limit/offset.
func (h *PhotosHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	photos, total, err := h.store.ListPhotos(r.Context(), limit, offset)
	if err != nil {
		log.Printf("list photos: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list photos")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"photos": photos,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// Get returns one photo with its face count.
func (h *PhotosHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := idParam(w, r, "id")
	if id == 0 {
		return
	}

	photo, err := h.store.GetPhoto(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "photo not found")
		return
	}
	if err != nil {
		log.Printf("get photo %d: %v", id, err)
		respondError(w, http.StatusInternalServerError, "failed to load photo")
		return
	}

	respondJSON(w, http.StatusOK, photo)
}

// Faces returns the faces detected in one photo, including their person
// assignments.
func (h *PhotosHandler) Faces(w http.ResponseWriter, r *http.Request) {
	id := idParam(w, r, "id")
	if id == 0 {
		return
	}

	if _, err := h.store.GetPhoto(r.Context(), id); errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "photo not found")
		return
	} else if err != nil {
		log.Printf("get photo %d: %v", id, err)
		respondError(w, http.StatusInternalServerError, "failed to load photo")
		return
	}

	faces, err := h.store.FacesOfPhoto(r.Context(), id)
	if err != nil {
		log.Printf("faces of photo %d: %v", id, err)
		respondError(w, http.StatusInternalServerError, "failed to load faces")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"faces": faces})
}

// File serves the original photo file.
func (h *PhotosHandler) File(w http.ResponseWriter, r *http.Request) {
	photo := h.loadPhoto(w, r)
	if photo == nil {
		return
	}
	h.serveFile(w, r, photo.FilePath)
}

// Thumbnail serves the photo's thumbnail, falling back to the original when
// no thumbnail was generated.
func (h *PhotosHandler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	photo := h.loadPhoto(w, r)
	if photo == nil {
		return
	}

	thumb := ThumbPath(h.uploadDir, photo.FileName)
	if _, err := os.Stat(thumb); err != nil {
		h.serveFile(w, r, photo.FilePath)
		return
	}
	h.serveFile(w, r, thumb)
}

// Delete removes a photo, its files, and all its faces. Persons left without
// faces stay in place; a reprocess cleans them up.
func (h *PhotosHandler) Delete(w http.ResponseWriter, r *http.Request) {
	photo := h.loadPhoto(w, r)
	if photo == nil {
		return
	}

	if err := h.store.DeletePhoto(r.Context(), photo.ID); err != nil {
		log.Printf("delete photo %d: %v", photo.ID, err)
		respondError(w, http.StatusInternalServerError, "failed to delete photo")
		return
	}

	// File removal is best effort; the database row is already gone.
	if err := os.Remove(photo.FilePath); err != nil && !os.IsNotExist(err) {
		log.Printf("remove %s: %v", sanitizeForLog(photo.FilePath), err)
	}
	if err := os.Remove(ThumbPath(h.uploadDir, photo.FileName)); err != nil && !os.IsNotExist(err) {
		log.Printf("remove thumbnail of photo %d: %v", photo.ID, err)
	}

	respondJSON(w, http.StatusOK, map[string]any{"deleted": photo.ID})
}

func (h *PhotosHandler) loadPhoto(w http.ResponseWriter, r *http.Request) *database.Photo {
	id := idParam(w, r, "id")
	if id == 0 {
		return nil
	}

	photo, err := h.store.GetPhoto(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "photo not found")
		return nil
	}
	if err != nil {
		log.Printf("get photo %d: %v", id, err)
		respondError(w, http.StatusInternalServerError, "failed to load photo")
		return nil
	}
	return photo
}

func (h *PhotosHandler) serveFile(w http.ResponseWriter, r *http.Request, path string) {
	f, err := os.Open(path)
	if err != nil {
		respondError(w, http.StatusNotFound, "file not found")
		return
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read file")
		return
	}
	http.ServeContent(w, r, filepath.Base(path), stat.ModTime(), f)
}

// ThumbPath returns where a photo's thumbnail lives. Thumbnails are always
// JPEG regardless of the source format.
func ThumbPath(uploadDir, fileName string) string {
	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	return filepath.Join(uploadDir, "thumbs", base+".jpg")
}
