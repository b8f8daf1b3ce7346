package handlers

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/mvasek/face-gallery/internal/database"
	"github.com/mvasek/face-gallery/internal/names"
)

// AlbumsHandler serves per-person photo albums as ZIP downloads.
type AlbumsHandler struct {
	store database.Store
}

// NewAlbumsHandler creates a new albums handler.
func NewAlbumsHandler(store database.Store) *AlbumsHandler {
	return &AlbumsHandler{store: store}
}

// Download streams a ZIP archive of every photo the person appears in. Photos
// are written under their original upload names; duplicate names get a
// numeric suffix.
func (h *AlbumsHandler) Download(w http.ResponseWriter, r *http.Request) {
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

	faces, err := h.store.FacesOfPerson(r.Context(), id)
	if err != nil {
		log.Printf("faces of person %d: %v", id, err)
		respondError(w, http.StatusInternalServerError, "failed to load album")
		return
	}
	if len(faces) == 0 {
		respondError(w, http.StatusNotFound, "person has no photos")
		return
	}

	archiveName := names.RemoveDiacritics(person.Name)
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", archiveName+".zip"))

	zw := zip.NewWriter(w)
	defer zw.Close()

	seen := make(map[int64]bool)
	used := make(map[string]int)
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
		if err := addPhotoToZip(zw, photo, used); err != nil {
			// The response is already streaming, nothing to do but log.
			log.Printf("zip photo %d: %v", photo.ID, err)
			return
		}
	}
}

func addPhotoToZip(zw *zip.Writer, photo *database.Photo, used map[string]int) error {
	src, err := os.Open(photo.FilePath)
	if err != nil {
		return fmt.Errorf("open %s: %w", filepath.Base(photo.FilePath), err)
	}
	defer src.Close()

	name := filepath.Base(photo.OriginalName)
	if name == "" || name == "." {
		name = photo.FileName
	}
	if n := used[name]; n > 0 {
		ext := filepath.Ext(name)
		name = fmt.Sprintf("%s-%d%s", name[:len(name)-len(ext)], n, ext)
	}
	used[filepath.Base(photo.OriginalName)]++

	entry, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create zip entry: %w", err)
	}
	if _, err := io.Copy(entry, src); err != nil {
		return fmt.Errorf("write zip entry: %w", err)
	}
	return nil
}
