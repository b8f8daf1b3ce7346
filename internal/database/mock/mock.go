// Package mock provides an in-memory implementation of database.Store for testing.
package mock

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mvasek/face-gallery/internal/database"
)

// Store is an in-memory database.Store. Iteration is always in ascending id
// order so tests observe the same deterministic enumeration the postgres
// backend guarantees.
type Store struct {
	mu      sync.RWMutex
	photos  map[int64]*database.Photo
	faces   map[int64]*database.Face
	persons map[int64]*database.Person

	nextPhotoID  int64
	nextFaceID   int64
	nextPersonID int64

	// Error injection. When set, the corresponding operation fails without
	// mutating any state.
	CreatePhotoError   error
	CreateFaceError    error
	CreatePersonError  error
	AssignFaceError    error
	AssignFacesError   error
	MergeError         error
	ClearError         error
	ListError          error
	RenameError        error
	DeletePhotoError   error
	MarkProcessedError error
	StatsError         error
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		photos:  make(map[int64]*database.Photo),
		faces:   make(map[int64]*database.Face),
		persons: make(map[int64]*database.Person),
	}
}

// --- Photos ---

// CreatePhoto stores a photo and assigns it a fresh id.
func (s *Store) CreatePhoto(ctx context.Context, photo *database.Photo) error {
	if s.CreatePhotoError != nil {
		return s.CreatePhotoError
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextPhotoID++
	photo.ID = s.nextPhotoID
	if photo.UploadedAt.IsZero() {
		photo.UploadedAt = time.Now()
	}
	cp := *photo
	s.photos[photo.ID] = &cp
	return nil
}

// GetPhoto returns a photo by id.
func (s *Store) GetPhoto(ctx context.Context, id int64) (*database.Photo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.photos[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *p
	cp.FaceCount = s.faceCountOfPhotoLocked(id)
	return &cp, nil
}

// ListPhotos returns a page of photos ascending id, plus the total count.
func (s *Store) ListPhotos(ctx context.Context, limit, offset int) ([]database.Photo, int, error) {
	if s.ListError != nil {
		return nil, 0, s.ListError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0, len(s.photos))
	for id := range s.photos {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	total := len(ids)
	if offset >= len(ids) {
		return nil, total, nil
	}
	ids = ids[offset:]
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}

	photos := make([]database.Photo, 0, len(ids))
	for _, id := range ids {
		cp := *s.photos[id]
		cp.FaceCount = s.faceCountOfPhotoLocked(id)
		photos = append(photos, cp)
	}
	return photos, total, nil
}

// DeletePhoto removes a photo and cascades to its faces.
func (s *Store) DeletePhoto(ctx context.Context, id int64) error {
	if s.DeletePhotoError != nil {
		return s.DeletePhotoError
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.photos[id]; !ok {
		return database.ErrNotFound
	}
	delete(s.photos, id)
	for faceID, f := range s.faces {
		if f.PhotoID == id {
			delete(s.faces, faceID)
		}
	}
	return nil
}

// MarkPhotoProcessed sets the processed flag.
func (s *Store) MarkPhotoProcessed(ctx context.Context, id int64) error {
	if s.MarkProcessedError != nil {
		return s.MarkProcessedError
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.photos[id]
	if !ok {
		return database.ErrNotFound
	}
	p.Processed = true
	return nil
}

func (s *Store) faceCountOfPhotoLocked(photoID int64) int {
	n := 0
	for _, f := range s.faces {
		if f.PhotoID == photoID {
			n++
		}
	}
	return n
}

// --- Faces ---

// CreateFace stores a face and assigns it a fresh id.
func (s *Store) CreateFace(ctx context.Context, face *database.Face) error {
	if s.CreateFaceError != nil {
		return s.CreateFaceError
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.photos[face.PhotoID]; !ok {
		return database.ErrNotFound
	}
	s.nextFaceID++
	face.ID = s.nextFaceID
	if face.CreatedAt.IsZero() {
		face.CreatedAt = time.Now()
	}
	cp := *face
	cp.Embedding = append([]float32(nil), face.Embedding...)
	s.faces[face.ID] = &cp
	return nil
}

// GetFace returns a face by id.
func (s *Store) GetFace(ctx context.Context, id int64) (*database.Face, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.faces[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (s *Store) facesWhereLocked(keep func(*database.Face) bool) []database.Face {
	var out []database.Face
	for _, f := range s.faces {
		if keep(f) {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// UnassignedFaces returns all faces without a person reference, ascending id.
func (s *Store) UnassignedFaces(ctx context.Context) ([]database.Face, error) {
	if s.ListError != nil {
		return nil, s.ListError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.facesWhereLocked(func(f *database.Face) bool { return f.PersonID == nil }), nil
}

// FacesOfPerson returns a person's faces, ascending id.
func (s *Store) FacesOfPerson(ctx context.Context, personID int64) ([]database.Face, error) {
	if s.ListError != nil {
		return nil, s.ListError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.facesWhereLocked(func(f *database.Face) bool {
		return f.PersonID != nil && *f.PersonID == personID
	}), nil
}

// FacesOfPhoto returns a photo's faces, ascending id.
func (s *Store) FacesOfPhoto(ctx context.Context, photoID int64) ([]database.Face, error) {
	if s.ListError != nil {
		return nil, s.ListError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.facesWhereLocked(func(f *database.Face) bool { return f.PhotoID == photoID }), nil
}

// AssignFace points one face at a person.
func (s *Store) AssignFace(ctx context.Context, faceID, personID int64) error {
	if s.AssignFaceError != nil {
		return s.AssignFaceError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assignLocked(faceID, personID)
}

// AssignFaces points many faces at one person; all or nothing.
func (s *Store) AssignFaces(ctx context.Context, faceIDs []int64, personID int64) error {
	if s.AssignFacesError != nil {
		return s.AssignFacesError
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate first so a bad id mutates nothing.
	for _, id := range faceIDs {
		if _, ok := s.faces[id]; !ok {
			return database.ErrNotFound
		}
	}
	if p, ok := s.persons[personID]; !ok || p.Merged {
		return database.ErrNotFound
	}
	for _, id := range faceIDs {
		if err := s.assignLocked(id, personID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) assignLocked(faceID, personID int64) error {
	f, ok := s.faces[faceID]
	if !ok {
		return database.ErrNotFound
	}
	// Merged persons never take assignments, matching the SQL guard.
	p, ok := s.persons[personID]
	if !ok || p.Merged {
		return database.ErrNotFound
	}
	pid := personID
	f.PersonID = &pid
	return nil
}

// --- Persons ---

// CreatePerson stores a person with a fresh id.
func (s *Store) CreatePerson(ctx context.Context, name string) (*database.Person, error) {
	if s.CreatePersonError != nil {
		return nil, s.CreatePersonError
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextPersonID++
	p := &database.Person{
		ID:        s.nextPersonID,
		Name:      name,
		CreatedAt: time.Now(),
	}
	s.persons[p.ID] = p
	cp := *p
	return &cp, nil
}

// CreatePersonWithFaces creates a person and assigns the faces in one step;
// a bad face id leaves no new person behind.
func (s *Store) CreatePersonWithFaces(ctx context.Context, name string, faceIDs []int64) (*database.Person, error) {
	if s.CreatePersonError != nil {
		return nil, s.CreatePersonError
	}
	if s.AssignFacesError != nil {
		return nil, s.AssignFacesError
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range faceIDs {
		if _, ok := s.faces[id]; !ok {
			return nil, database.ErrNotFound
		}
	}

	s.nextPersonID++
	p := &database.Person{
		ID:        s.nextPersonID,
		Name:      name,
		CreatedAt: time.Now(),
	}
	s.persons[p.ID] = p
	for _, id := range faceIDs {
		if err := s.assignLocked(id, p.ID); err != nil {
			return nil, err
		}
	}
	cp := *p
	return &cp, nil
}

// GetPerson returns a person by id.
func (s *Store) GetPerson(ctx context.Context, id int64) (*database.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.persons[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *p
	s.fillDerivedLocked(&cp)
	return &cp, nil
}

// ActivePersons returns all non-merged persons, ascending id.
func (s *Store) ActivePersons(ctx context.Context) ([]database.Person, error) {
	if s.ListError != nil {
		return nil, s.ListError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []database.Person
	for _, p := range s.persons {
		if p.Active() {
			cp := *p
			s.fillDerivedLocked(&cp)
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// RenamePerson updates a person's display name.
func (s *Store) RenamePerson(ctx context.Context, id int64, name string) error {
	if s.RenameError != nil {
		return s.RenameError
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.persons[id]
	if !ok {
		return database.ErrNotFound
	}
	p.Name = name
	return nil
}

// CountPersons returns the total number of persons ever created, merged included.
func (s *Store) CountPersons(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.persons), nil
}

// MergePersons moves the absorbed person's faces to the survivor and flags
// the absorbed person as merged. All or nothing.
func (s *Store) MergePersons(ctx context.Context, survivorID, absorbedID int64) error {
	if s.MergeError != nil {
		return s.MergeError
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	survivor, ok := s.persons[survivorID]
	if !ok {
		return database.ErrNotFound
	}
	absorbed, ok := s.persons[absorbedID]
	if !ok {
		return database.ErrNotFound
	}

	for _, f := range s.faces {
		if f.PersonID != nil && *f.PersonID == absorbedID {
			pid := survivor.ID
			f.PersonID = &pid
		}
	}
	absorbed.Merged = true
	sid := survivorID
	absorbed.MergedInto = &sid
	return nil
}

// ClearAssignments removes every face's person reference and resets merge flags.
func (s *Store) ClearAssignments(ctx context.Context) error {
	if s.ClearError != nil {
		return s.ClearError
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range s.faces {
		f.PersonID = nil
	}
	for _, p := range s.persons {
		p.Merged = false
		p.MergedInto = nil
	}
	return nil
}

func (s *Store) fillDerivedLocked(p *database.Person) {
	photoIDs := make(map[int64]struct{})
	for _, f := range s.faces {
		if f.PersonID != nil && *f.PersonID == p.ID {
			p.FaceCount++
			photoIDs[f.PhotoID] = struct{}{}
		}
	}
	p.PhotoCount = len(photoIDs)
}

// --- Stats ---

// GalleryStats derives aggregate counts from the stored entities.
func (s *Store) GalleryStats(ctx context.Context) (*database.Stats, error) {
	if s.StatsError != nil {
		return nil, s.StatsError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := &database.Stats{
		TotalPhotos: len(s.photos),
		TotalFaces:  len(s.faces),
	}
	for _, p := range s.photos {
		if p.Processed {
			st.ProcessedPhotos++
		}
		st.StorageBytes += p.FileSize
	}
	for _, p := range s.persons {
		if p.Active() {
			st.TotalPersons++
		}
	}
	return st, nil
}
