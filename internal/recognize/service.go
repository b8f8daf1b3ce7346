// Package recognize implements the face identity resolution engine: the
// incremental matcher that assigns each newly detected face to a person, the
// batch clusterer that regroups all unassigned faces from scratch, and the
// administrative merge and reprocess operations.
package recognize

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/mvasek/face-gallery/internal/config"
	"github.com/mvasek/face-gallery/internal/database"
	"github.com/mvasek/face-gallery/internal/detect"
)

// Errors surfaced by administrative operations.
var (
	// ErrSelfMerge is returned when a merge names the same person twice.
	ErrSelfMerge = errors.New("cannot merge a person into itself")
	// ErrPersonMerged is returned when a merge involves an already-merged
	// person on either side. Merges always target live identities, so merge
	// chains cannot form.
	ErrPersonMerged = errors.New("person has already been merged")
	// ErrEmptyName is returned when a rename provides no usable name.
	ErrEmptyName = errors.New("person name must not be empty")
)

// Service is the identity resolution engine. All mutating operations are
// serialized through a single mutex: one photo's face set, one merge, or one
// full reprocess runs at a time, so a reprocess can never interleave with
// incremental matching.
type Service struct {
	store     database.Store
	detector  detect.Provider
	tolerance float64
	dim       int

	// index accelerates candidate lookup for the matcher. Optional; when nil
	// every match scans all persons.
	index      *database.FaceIndex
	candidates int

	mu sync.Mutex
}

// NewService creates the resolution engine.
func NewService(store database.Store, detector detect.Provider, cfg config.RecognitionConfig) *Service {
	return &Service{
		store:      store,
		detector:   detector,
		tolerance:  cfg.Tolerance,
		dim:        cfg.EmbeddingDim,
		candidates: cfg.HNSWCandidates,
	}
}

// EnableIndex attaches an HNSW index built from the currently assigned faces.
func (s *Service) EnableIndex(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := database.NewFaceIndex()
	persons, err := s.store.ActivePersons(ctx)
	if err != nil {
		return fmt.Errorf("list persons for index: %w", err)
	}
	var assigned []database.Face
	for _, p := range persons {
		faces, err := s.store.FacesOfPerson(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("list faces of person %d: %w", p.ID, err)
		}
		assigned = append(assigned, faces...)
	}
	idx.Build(assigned)
	s.index = idx
	return nil
}

// IndexCount returns the number of faces in the HNSW index, zero when disabled.
func (s *Service) IndexCount() int {
	if s.index == nil {
		return 0
	}
	return s.index.Count()
}

// ProcessPhoto runs detection on one photo and resolves every detected face
// to a person. Faces of the same photo are handled sequentially, and each
// face re-queries the store, so two faces in one photo may land on the same
// person. Returns the number of faces resolved.
//
// A detector failure leaves the photo unprocessed and is reported to the
// caller; a failure on a single face is logged and skipped without touching
// its siblings.
func (s *Service) ProcessPhoto(ctx context.Context, photoID int64, imagePath string) (int, error) {
	detections, err := s.detector.Detect(ctx, imagePath)
	if err != nil {
		return 0, fmt.Errorf("detect faces in photo %d: %w", photoID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	resolved := 0
	for i, d := range detections {
		if err := s.resolveDetection(ctx, photoID, d); err != nil {
			log.Printf("photo %d: face %d: %v", photoID, i, err)
			continue
		}
		resolved++
	}

	if err := s.store.MarkPhotoProcessed(ctx, photoID); err != nil {
		return resolved, fmt.Errorf("mark photo %d processed: %w", photoID, err)
	}
	return resolved, nil
}

// resolveDetection persists one detection and assigns it to a person,
// creating a new person when nothing matches. The face row is written first,
// unassigned; assignment failures leave it unassigned rather than partially
// committed.
func (s *Service) resolveDetection(ctx context.Context, photoID int64, d detect.Detection) error {
	if err := d.Box.Validate(); err != nil {
		return fmt.Errorf("invalid bounding box: %w", err)
	}
	if len(d.Embedding) != s.dim {
		return fmt.Errorf("embedding has dimension %d, want %d", len(d.Embedding), s.dim)
	}

	face := &database.Face{
		PhotoID:    photoID,
		Box:        d.Box,
		Embedding:  d.Embedding,
		Confidence: d.Confidence,
	}
	if err := s.store.CreateFace(ctx, face); err != nil {
		return fmt.Errorf("persist face: %w", err)
	}

	personID, err := s.matchFace(ctx, d.Embedding)
	if err != nil {
		return fmt.Errorf("match face %d: %w", face.ID, err)
	}

	if personID != 0 {
		if err := s.store.AssignFace(ctx, face.ID, personID); err != nil {
			return fmt.Errorf("assign face %d to person %d: %w", face.ID, personID, err)
		}
	} else {
		name, err := s.nextPlaceholderName(ctx)
		if err != nil {
			return err
		}
		person, err := s.store.CreatePersonWithFaces(ctx, name, []int64{face.ID})
		if err != nil {
			return fmt.Errorf("create person for face %d: %w", face.ID, err)
		}
		personID = person.ID
	}

	if s.index != nil {
		face.PersonID = &personID
		s.index.Add(face)
	}
	return nil
}

// nextPlaceholderName derives a fresh "Person n" name from the total person
// count, merged persons included, so names never collide.
func (s *Service) nextPlaceholderName(ctx context.Context) (string, error) {
	count, err := s.store.CountPersons(ctx)
	if err != nil {
		return "", fmt.Errorf("count persons: %w", err)
	}
	return fmt.Sprintf("Person %d", count+1), nil
}

// MergePersons consolidates the absorbed person into the survivor. Both must
// exist and be live identities; merging a merged person in either role is
// rejected so no merge chains can form. The store applies the move and the
// merged flag in one transaction.
func (s *Service) MergePersons(ctx context.Context, survivorID, absorbedID int64) error {
	if survivorID == absorbedID {
		return ErrSelfMerge
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	survivor, err := s.store.GetPerson(ctx, survivorID)
	if err != nil {
		return fmt.Errorf("survivor %d: %w", survivorID, err)
	}
	absorbed, err := s.store.GetPerson(ctx, absorbedID)
	if err != nil {
		return fmt.Errorf("absorbed %d: %w", absorbedID, err)
	}
	if !survivor.Active() || !absorbed.Active() {
		return ErrPersonMerged
	}

	moved, err := s.store.FacesOfPerson(ctx, absorbedID)
	if err != nil {
		return fmt.Errorf("list faces of person %d: %w", absorbedID, err)
	}

	if err := s.store.MergePersons(ctx, survivorID, absorbedID); err != nil {
		return fmt.Errorf("merge person %d into %d: %w", absorbedID, survivorID, err)
	}

	if s.index != nil {
		for _, f := range moved {
			s.index.Reassign(f.ID, survivorID)
		}
	}
	return nil
}

// RenamePerson sets a person's display name.
func (s *Service) RenamePerson(ctx context.Context, personID int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	return s.store.RenamePerson(ctx, personID, name)
}

// ReprocessAll discards every person assignment and merge flag, then regroups
// the entire face population with the batch clusterer. Destructive and
// irreversible; incremental matching is excluded for the duration.
func (s *Service) ReprocessAll(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.ClearAssignments(ctx); err != nil {
		return 0, fmt.Errorf("clear assignments: %w", err)
	}
	if s.index != nil {
		s.index.Build(nil)
	}
	return s.groupUnassignedLocked(ctx)
}

// GroupUnassigned clusters all currently unassigned faces into new persons.
// Returns the number of persons created.
func (s *Service) GroupUnassigned(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.groupUnassignedLocked(ctx)
}
