package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mvasek/face-gallery/internal/database"
	"github.com/mvasek/face-gallery/internal/database/mock"
)

func TestStatsHandler_Get(t *testing.T) {
	store := mock.NewStore()
	photo := seedTestPhoto(t, store, "a.jpg")
	seedTestPerson(t, store, "Person 1", photo.ID)

	handler := NewStatsHandler(store)
	recorder := httptest.NewRecorder()
	handler.Get(recorder, httptest.NewRequest("GET", "/api/v1/stats", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	var stats database.Stats
	parseJSONResponse(t, recorder, &stats)
	if stats.TotalPhotos != 1 {
		t.Errorf("total_photos = %d, want 1", stats.TotalPhotos)
	}
	if stats.TotalPersons != 1 {
		t.Errorf("total_persons = %d, want 1", stats.TotalPersons)
	}
	if stats.TotalFaces != 1 {
		t.Errorf("total_faces = %d, want 1", stats.TotalFaces)
	}
}
