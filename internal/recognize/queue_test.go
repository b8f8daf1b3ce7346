package recognize

import (
	"context"
	"errors"
	"testing"

	"github.com/mvasek/face-gallery/internal/database/mock"
	"github.com/mvasek/face-gallery/internal/detect"
)

// flakyDetector fails for one specific path and succeeds for every other.
type flakyDetector struct {
	failPath   string
	detections []detect.Detection
}

func (d *flakyDetector) Detect(ctx context.Context, imagePath string) ([]detect.Detection, error) {
	if imagePath == d.failPath {
		return nil, errors.New("sidecar down")
	}
	return d.detections, nil
}

func TestQueueProcessesEnqueuedPhotos(t *testing.T) {
	store := mock.NewStore()
	det := &stubDetector{detections: []detect.Detection{detection(0)}}
	svc := NewService(store, det, testConfig())

	photo := newTestPhoto(t, store)
	q := NewQueue(context.Background(), svc, 4)
	if !q.Enqueue(photo.ID, photo.FilePath) {
		t.Fatal("enqueue rejected")
	}
	q.Stop()

	got, err := store.GetPhoto(context.Background(), photo.ID)
	if err != nil {
		t.Fatalf("get photo: %v", err)
	}
	if !got.Processed {
		t.Error("photo not processed after queue drained")
	}
}

func TestQueueFailedPhotoDoesNotBlockSiblings(t *testing.T) {
	store := mock.NewStore()
	det := &flakyDetector{
		failPath:   "/photos/bad.jpg",
		detections: []detect.Detection{detection(0)},
	}
	svc := NewService(store, det, testConfig())

	first := newTestPhoto(t, store)
	second := newTestPhoto(t, store)

	q := NewQueue(context.Background(), svc, 4)
	if !q.Enqueue(first.ID, "/photos/bad.jpg") {
		t.Fatal("enqueue rejected")
	}
	if !q.Enqueue(second.ID, "/photos/good.jpg") {
		t.Fatal("enqueue rejected")
	}
	q.Stop()

	got1, _ := store.GetPhoto(context.Background(), first.ID)
	if got1.Processed {
		t.Error("failed photo marked processed")
	}
	got2, _ := store.GetPhoto(context.Background(), second.ID)
	if !got2.Processed {
		t.Error("sibling photo not processed after an earlier failure")
	}
}

func TestQueueEnqueueAfterStop(t *testing.T) {
	store := mock.NewStore()
	svc := NewService(store, &stubDetector{}, testConfig())

	q := NewQueue(context.Background(), svc, 4)
	q.Stop()

	if q.Enqueue(1, "/tmp/a.jpg") {
		t.Error("enqueue accepted after Stop")
	}
	// Stop twice is safe.
	q.Stop()
}
