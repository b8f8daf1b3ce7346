package handlers

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/mvasek/face-gallery/internal/database"
	"github.com/mvasek/face-gallery/internal/database/mock"
)

func TestAlbumsHandler_Download(t *testing.T) {
	store := mock.NewStore()
	dir := t.TempDir()
	ctx := context.Background()

	var faceIDs []int64
	for _, name := range []string{"beach.jpg", "party.jpg"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("content of "+name), 0o644); err != nil {
			t.Fatalf("write file: %v", err)
		}
		photo := &database.Photo{FileName: name, OriginalName: name, FilePath: path}
		if err := store.CreatePhoto(ctx, photo); err != nil {
			t.Fatalf("create photo: %v", err)
		}
		f := &database.Face{
			PhotoID:    photo.ID,
			Box:        database.BoundingBox{Top: 10, Right: 60, Bottom: 70, Left: 20},
			Embedding:  make([]float32, database.FaceEmbeddingDim),
			Confidence: 0.9,
		}
		if err := store.CreateFace(ctx, f); err != nil {
			t.Fatalf("create face: %v", err)
		}
		faceIDs = append(faceIDs, f.ID)
	}
	if _, err := store.CreatePersonWithFaces(ctx, "Jiří", faceIDs); err != nil {
		t.Fatalf("create person: %v", err)
	}

	handler := NewAlbumsHandler(store)
	req := requestWithChiParams(
		httptest.NewRequest("GET", "/api/v1/persons/1/album", nil),
		map[string]string{"id": "1"},
	)
	recorder := httptest.NewRecorder()
	handler.Download(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	if ct := recorder.Header().Get("Content-Type"); ct != "application/zip" {
		t.Errorf("Content-Type = %q, want application/zip", ct)
	}
	if cd := recorder.Header().Get("Content-Disposition"); cd != `attachment; filename="Jiri.zip"` {
		t.Errorf("Content-Disposition = %q", cd)
	}

	zr, err := zip.NewReader(bytes.NewReader(recorder.Body.Bytes()), int64(recorder.Body.Len()))
	if err != nil {
		t.Fatalf("read zip: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("zip holds %d files, want 2", len(zr.File))
	}
	got := map[string]bool{}
	for _, f := range zr.File {
		got[f.Name] = true
	}
	if !got["beach.jpg"] || !got["party.jpg"] {
		t.Errorf("zip entries = %v", got)
	}
}

func TestAlbumsHandler_Download_NoPhotos(t *testing.T) {
	store := mock.NewStore()
	if _, err := store.CreatePerson(context.Background(), "Person 1"); err != nil {
		t.Fatalf("create person: %v", err)
	}

	handler := NewAlbumsHandler(store)
	req := requestWithChiParams(
		httptest.NewRequest("GET", "/api/v1/persons/1/album", nil),
		map[string]string{"id": "1"},
	)
	recorder := httptest.NewRecorder()
	handler.Download(recorder, req)

	assertStatusCode(t, recorder, http.StatusNotFound)
}

func TestAlbumsHandler_Download_UnknownPerson(t *testing.T) {
	handler := NewAlbumsHandler(mock.NewStore())
	req := requestWithChiParams(
		httptest.NewRequest("GET", "/api/v1/persons/5/album", nil),
		map[string]string{"id": "5"},
	)
	recorder := httptest.NewRecorder()
	handler.Download(recorder, req)

	assertStatusCode(t, recorder, http.StatusNotFound)
	assertJSONError(t, recorder, "person not found")
}
