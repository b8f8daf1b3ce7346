//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mvasek/face-gallery/internal/config"
	"github.com/mvasek/face-gallery/internal/database"
)

func setupTestContainer(t *testing.T) (*Pool, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	cfg := &config.DatabaseConfig{
		URL:          fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port()),
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	}

	pool, err := NewPool(cfg)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to create pool: %v", err)
	}

	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return pool, func() {
		pool.Close()
		container.Terminate(ctx)
	}
}

func testEmbedding(seed float32) []float32 {
	emb := make([]float32, database.FaceEmbeddingDim)
	for i := range emb {
		emb[i] = seed + float32(i)/float32(database.FaceEmbeddingDim)
	}
	return emb
}

func createTestPhoto(t *testing.T, store *Store, name string) *database.Photo {
	t.Helper()
	photo := &database.Photo{
		FileName:     name,
		OriginalName: name,
		FilePath:     "/tmp/" + name,
		FileSize:     1024,
		Width:        800,
		Height:       600,
	}
	if err := store.CreatePhoto(context.Background(), photo); err != nil {
		t.Fatalf("CreatePhoto: %v", err)
	}
	return photo
}

func createTestFace(t *testing.T, store *Store, photoID int64, seed float32) *database.Face {
	t.Helper()
	face := &database.Face{
		PhotoID:    photoID,
		Box:        database.BoundingBox{Top: 10, Right: 100, Bottom: 90, Left: 20},
		Embedding:  testEmbedding(seed),
		Confidence: 0.9,
	}
	if err := store.CreateFace(context.Background(), face); err != nil {
		t.Fatalf("CreateFace: %v", err)
	}
	return face
}

func TestFaceEmbeddingRoundTrip(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	store := NewStore(pool)
	ctx := context.Background()

	photo := createTestPhoto(t, store, "roundtrip.jpg")
	face := createTestFace(t, store, photo.ID, 0.25)

	got, err := store.GetFace(ctx, face.ID)
	if err != nil {
		t.Fatalf("GetFace: %v", err)
	}
	if len(got.Embedding) != database.FaceEmbeddingDim {
		t.Fatalf("embedding dim = %d, want %d", len(got.Embedding), database.FaceEmbeddingDim)
	}
	for i := range got.Embedding {
		if got.Embedding[i] != face.Embedding[i] {
			t.Fatalf("embedding[%d] = %v, want %v (lossy round-trip)",
				i, got.Embedding[i], face.Embedding[i])
		}
	}
	if got.PersonID != nil {
		t.Errorf("new face should be unassigned, got person %d", *got.PersonID)
	}
}

func TestPhotoDeleteCascadesToFaces(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	store := NewStore(pool)
	ctx := context.Background()

	photo := createTestPhoto(t, store, "cascade.jpg")
	face := createTestFace(t, store, photo.ID, 0.1)

	if err := store.DeletePhoto(ctx, photo.ID); err != nil {
		t.Fatalf("DeletePhoto: %v", err)
	}
	if _, err := store.GetFace(ctx, face.ID); err != database.ErrNotFound {
		t.Errorf("GetFace after cascade = %v, want ErrNotFound", err)
	}
}

func TestMergePersonsTransactional(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	store := NewStore(pool)
	ctx := context.Background()

	photo := createTestPhoto(t, store, "merge.jpg")
	f1 := createTestFace(t, store, photo.ID, 0.1)
	f2 := createTestFace(t, store, photo.ID, 0.2)

	survivor, err := store.CreatePersonWithFaces(ctx, "Person 1", []int64{f1.ID})
	if err != nil {
		t.Fatalf("CreatePersonWithFaces: %v", err)
	}
	absorbed, err := store.CreatePersonWithFaces(ctx, "Person 2", []int64{f2.ID})
	if err != nil {
		t.Fatalf("CreatePersonWithFaces: %v", err)
	}

	if err := store.MergePersons(ctx, survivor.ID, absorbed.ID); err != nil {
		t.Fatalf("MergePersons: %v", err)
	}

	absorbedFaces, err := store.FacesOfPerson(ctx, absorbed.ID)
	if err != nil {
		t.Fatalf("FacesOfPerson: %v", err)
	}
	if len(absorbedFaces) != 0 {
		t.Errorf("absorbed person still has %d faces", len(absorbedFaces))
	}

	survivorFaces, err := store.FacesOfPerson(ctx, survivor.ID)
	if err != nil {
		t.Fatalf("FacesOfPerson: %v", err)
	}
	if len(survivorFaces) != 2 {
		t.Errorf("survivor has %d faces, want 2", len(survivorFaces))
	}

	got, err := store.GetPerson(ctx, absorbed.ID)
	if err != nil {
		t.Fatalf("GetPerson: %v", err)
	}
	if !got.Merged || got.MergedInto == nil || *got.MergedInto != survivor.ID {
		t.Errorf("absorbed person = %+v, want merged into %d", got, survivor.ID)
	}

	// Merged person must no longer appear in the active set.
	active, err := store.ActivePersons(ctx)
	if err != nil {
		t.Fatalf("ActivePersons: %v", err)
	}
	for _, p := range active {
		if p.ID == absorbed.ID {
			t.Error("merged person listed as active")
		}
	}

	// MergePersons into a missing person mutates nothing.
	if err := store.MergePersons(ctx, 99999, survivor.ID); err != database.ErrNotFound {
		t.Errorf("merge with missing survivor = %v, want ErrNotFound", err)
	}
}

func TestAssignFaceRejectsMergedPerson(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	store := NewStore(pool)
	ctx := context.Background()

	photo := createTestPhoto(t, store, "assign.jpg")
	f1 := createTestFace(t, store, photo.ID, 0.1)
	f2 := createTestFace(t, store, photo.ID, 0.5)

	survivor, err := store.CreatePersonWithFaces(ctx, "Person 1", []int64{f1.ID})
	if err != nil {
		t.Fatalf("CreatePersonWithFaces: %v", err)
	}
	absorbed, err := store.CreatePerson(ctx, "Person 2")
	if err != nil {
		t.Fatalf("CreatePerson: %v", err)
	}
	if err := store.MergePersons(ctx, survivor.ID, absorbed.ID); err != nil {
		t.Fatalf("MergePersons: %v", err)
	}

	if err := store.AssignFace(ctx, f2.ID, absorbed.ID); err != database.ErrNotFound {
		t.Errorf("assigning to merged person = %v, want ErrNotFound", err)
	}
}

func TestClearAssignments(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	store := NewStore(pool)
	ctx := context.Background()

	photo := createTestPhoto(t, store, "clear.jpg")
	f1 := createTestFace(t, store, photo.ID, 0.1)
	f2 := createTestFace(t, store, photo.ID, 0.9)

	p1, err := store.CreatePersonWithFaces(ctx, "Person 1", []int64{f1.ID})
	if err != nil {
		t.Fatalf("CreatePersonWithFaces: %v", err)
	}
	p2, err := store.CreatePersonWithFaces(ctx, "Person 2", []int64{f2.ID})
	if err != nil {
		t.Fatalf("CreatePersonWithFaces: %v", err)
	}
	if err := store.MergePersons(ctx, p1.ID, p2.ID); err != nil {
		t.Fatalf("MergePersons: %v", err)
	}

	if err := store.ClearAssignments(ctx); err != nil {
		t.Fatalf("ClearAssignments: %v", err)
	}

	unassigned, err := store.UnassignedFaces(ctx)
	if err != nil {
		t.Fatalf("UnassignedFaces: %v", err)
	}
	if len(unassigned) != 2 {
		t.Errorf("unassigned faces = %d, want 2", len(unassigned))
	}

	got, err := store.GetPerson(ctx, p2.ID)
	if err != nil {
		t.Fatalf("GetPerson: %v", err)
	}
	if got.Merged || got.MergedInto != nil {
		t.Errorf("merge flags not reset: %+v", got)
	}
}
