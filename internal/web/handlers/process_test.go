package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mvasek/face-gallery/internal/database"
	"github.com/mvasek/face-gallery/internal/database/mock"
)

func seedUnassignedFace(t *testing.T, store *mock.Store, photoID int64, first float32) {
	t.Helper()
	emb := make([]float32, database.FaceEmbeddingDim)
	emb[0] = first
	f := &database.Face{
		PhotoID:    photoID,
		Box:        database.BoundingBox{Top: 10, Right: 60, Bottom: 70, Left: 20},
		Embedding:  emb,
		Confidence: 0.9,
	}
	if err := store.CreateFace(context.Background(), f); err != nil {
		t.Fatalf("create face: %v", err)
	}
}

func TestProcessHandler_Regroup(t *testing.T) {
	store := mock.NewStore()
	photo := seedTestPhoto(t, store, "a.jpg")
	seedUnassignedFace(t, store, photo.ID, 0)
	seedUnassignedFace(t, store, photo.ID, 0.1)
	seedUnassignedFace(t, store, photo.ID, 2.0)

	handler := NewProcessHandler(newTestService(store))
	recorder := httptest.NewRecorder()
	handler.Regroup(recorder, httptest.NewRequest("POST", "/api/v1/process/regroup", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	var resp struct {
		Created int `json:"persons_created"`
	}
	parseJSONResponse(t, recorder, &resp)
	if resp.Created != 2 {
		t.Errorf("persons_created = %d, want 2", resp.Created)
	}
}

func TestProcessHandler_Reprocess(t *testing.T) {
	store := mock.NewStore()
	photo := seedTestPhoto(t, store, "a.jpg")
	seedTestPerson(t, store, "Person 1", photo.ID)

	handler := NewProcessHandler(newTestService(store))
	recorder := httptest.NewRecorder()
	handler.Reprocess(recorder, httptest.NewRequest("POST", "/api/v1/process/reprocess", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	var resp struct {
		Created int `json:"persons_created"`
	}
	parseJSONResponse(t, recorder, &resp)
	if resp.Created != 1 {
		t.Errorf("persons_created = %d, want 1", resp.Created)
	}

	// The original person keeps its row but loses its faces.
	faces, _ := store.FacesOfPerson(context.Background(), 1)
	if len(faces) != 0 {
		t.Errorf("old person still has %d faces", len(faces))
	}
}
