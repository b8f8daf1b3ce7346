package handlers

import (
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/mvasek/face-gallery/internal/database"
	"github.com/mvasek/face-gallery/internal/thumbs"
)

// MaxUploadSize bounds one multipart upload request.
const MaxUploadSize = 100 << 20 // 100 MB

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// Enqueuer schedules background face processing for an uploaded photo.
type Enqueuer interface {
	Enqueue(photoID int64, path string) bool
}

// UploadHandler accepts photo uploads, stores the files, and queues them for
// face processing.
type UploadHandler struct {
	store     database.Store
	queue     Enqueuer
	thumbs    *thumbs.Generator
	uploadDir string
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(store database.Store, queue Enqueuer, gen *thumbs.Generator, uploadDir string) *UploadHandler {
	return &UploadHandler{
		store:     store,
		queue:     queue,
		thumbs:    gen,
		uploadDir: uploadDir,
	}
}

type uploadFailure struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// Upload handles multipart photo uploads under the "files" field. Each file
// is stored under a fresh random name, registered in the database, and queued
// for processing; the response returns before any face is detected. A bad
// file is skipped and reported without aborting its siblings.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		respondError(w, http.StatusBadRequest, "no files provided")
		return
	}

	var uploaded []*database.Photo
	failed := []uploadFailure{}
	for _, fh := range files {
		photo, err := h.saveOne(r, fh)
		if err != nil {
			log.Printf("upload %s: %v", sanitizeForLog(fh.Filename), err)
			failed = append(failed, uploadFailure{
				File:  filepath.Base(fh.Filename),
				Error: err.Error(),
			})
			continue
		}
		uploaded = append(uploaded, photo)
	}

	if len(uploaded) == 0 {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"uploaded": 0,
			"failed":   failed,
		})
		return
	}

	for _, photo := range uploaded {
		if !h.queue.Enqueue(photo.ID, photo.FilePath) {
			log.Printf("photo %d: processing queue full, photo stays unprocessed", photo.ID)
		}
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"uploaded": len(uploaded),
		"photos":   uploaded,
		"failed":   failed,
	})
}

// saveOne stores a single uploaded file and its database row.
func (h *UploadHandler) saveOne(r *http.Request, fh *multipart.FileHeader) (*database.Photo, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedExtensions[ext] {
		return nil, fmt.Errorf("unsupported file type %q", ext)
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Join(h.uploadDir, "thumbs"), 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}

	fileName := uuid.NewString() + ext
	filePath := filepath.Join(h.uploadDir, fileName)
	dst, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	size, err := io.Copy(dst, src)
	dst.Close()
	if err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("save file: %w", err)
	}

	width, height, err := thumbs.Size(filePath)
	if err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("not a valid image: %w", err)
	}

	photo := &database.Photo{
		FileName:     fileName,
		OriginalName: filepath.Base(fh.Filename),
		FilePath:     filePath,
		FileSize:     size,
		Width:        width,
		Height:       height,
	}
	if err := h.store.CreatePhoto(r.Context(), photo); err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("register photo: %w", err)
	}

	// Thumbnail failure is not fatal; the thumb endpoint falls back to the
	// original file.
	if err := h.thumbs.Generate(filePath, ThumbPath(h.uploadDir, fileName)); err != nil {
		log.Printf("thumbnail for photo %d: %v", photo.ID, err)
	}
	return photo, nil
}
