package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/mvasek/face-gallery/internal/config"
	"github.com/mvasek/face-gallery/internal/database"
	"github.com/mvasek/face-gallery/internal/database/mock"
	"github.com/mvasek/face-gallery/internal/detect"
	"github.com/mvasek/face-gallery/internal/recognize"
)

// newTestService creates a resolution engine over a mock store for handler tests.
func newTestService(store *mock.Store) *recognize.Service {
	return recognize.NewService(store, detect.NewFakeProvider(database.FaceEmbeddingDim), config.RecognitionConfig{
		Tolerance:      0.6,
		EmbeddingDim:   database.FaceEmbeddingDim,
		HNSWCandidates: 16,
	})
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// seedTestPhoto inserts a photo row without any backing file.
func seedTestPhoto(t *testing.T, store *mock.Store, name string) *database.Photo {
	t.Helper()
	photo := &database.Photo{
		FileName:     name,
		OriginalName: name,
		FilePath:     "/nonexistent/" + name,
		Width:        800,
		Height:       600,
	}
	if err := store.CreatePhoto(context.Background(), photo); err != nil {
		t.Fatalf("seed photo: %v", err)
	}
	return photo
}

// seedTestPerson inserts a person with one face on the given photo.
func seedTestPerson(t *testing.T, store *mock.Store, name string, photoID int64) *database.Person {
	t.Helper()
	ctx := context.Background()
	f := &database.Face{
		PhotoID:    photoID,
		Box:        database.BoundingBox{Top: 10, Right: 60, Bottom: 70, Left: 20},
		Embedding:  make([]float32, database.FaceEmbeddingDim),
		Confidence: 0.9,
	}
	if err := store.CreateFace(ctx, f); err != nil {
		t.Fatalf("seed face: %v", err)
	}
	p, err := store.CreatePersonWithFaces(ctx, name, []int64{f.ID})
	if err != nil {
		t.Fatalf("seed person: %v", err)
	}
	return p
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}
