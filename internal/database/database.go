// Package database defines the storage contract for photos, faces and person
// identities, plus the distance metric and in-memory index shared by the
// recognition engine and its storage backends.
package database

import (
	"context"
	"errors"
)

// Sentinel errors returned by Store implementations.
var (
	// ErrNotFound is returned when a referenced photo, face or person does not exist.
	ErrNotFound = errors.New("not found")
)

// FaceEmbeddingDim is the fixed dimensionality of face embeddings. Every face
// ever stored carries a vector of exactly this length.
const FaceEmbeddingDim = 128

// PhotoStore persists photos.
type PhotoStore interface {
	CreatePhoto(ctx context.Context, photo *Photo) error
	GetPhoto(ctx context.Context, id int64) (*Photo, error)
	ListPhotos(ctx context.Context, limit, offset int) ([]Photo, int, error)
	// DeletePhoto removes the photo and, by cascade, all of its faces.
	DeletePhoto(ctx context.Context, id int64) error
	MarkPhotoProcessed(ctx context.Context, id int64) error
}

// FaceStore persists face observations.
type FaceStore interface {
	CreateFace(ctx context.Context, face *Face) error
	GetFace(ctx context.Context, id int64) (*Face, error)
	// UnassignedFaces returns all faces with no person reference, ascending id.
	UnassignedFaces(ctx context.Context) ([]Face, error)
	// FacesOfPerson returns a person's faces, ascending id.
	FacesOfPerson(ctx context.Context, personID int64) ([]Face, error)
	FacesOfPhoto(ctx context.Context, photoID int64) ([]Face, error)
	// AssignFace atomically points one face at a person.
	AssignFace(ctx context.Context, faceID, personID int64) error
	// AssignFaces points many faces at one person in a single transaction.
	AssignFaces(ctx context.Context, faceIDs []int64, personID int64) error
}

// PersonStore persists person identities.
type PersonStore interface {
	CreatePerson(ctx context.Context, name string) (*Person, error)
	// CreatePersonWithFaces creates a person and assigns the given faces to it
	// in a single transaction, so a failure leaves neither an orphan person
	// nor a partially assigned cluster.
	CreatePersonWithFaces(ctx context.Context, name string, faceIDs []int64) (*Person, error)
	GetPerson(ctx context.Context, id int64) (*Person, error)
	// ActivePersons returns all non-merged persons, ascending id.
	ActivePersons(ctx context.Context) ([]Person, error)
	RenamePerson(ctx context.Context, id int64, name string) error
	CountPersons(ctx context.Context) (int, error)
	// MergePersons moves every face of absorbedID to survivorID and flags the
	// absorbed person as merged, all in a single transaction.
	MergePersons(ctx context.Context, survivorID, absorbedID int64) error
	// ClearAssignments nulls every face's person reference and resets all
	// merge flags in a single transaction. Used by full reprocessing.
	ClearAssignments(ctx context.Context) error
}

// Store is the full persistence contract the application runs against.
// The postgres package provides the production implementation; the mock
// package provides an in-memory one for tests.
type Store interface {
	PhotoStore
	FaceStore
	PersonStore
	GalleryStats(ctx context.Context) (*Stats, error)
}
