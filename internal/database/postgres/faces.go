package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/mvasek/face-gallery/internal/database"
)

const faceColumns = `id, photo_id, person_id,
	box_top, box_right, box_bottom, box_left,
	embedding, confidence, created_at`

// CreateFace inserts a face observation. The embedding round-trips through
// the pgvector column without loss.
func (s *Store) CreateFace(ctx context.Context, face *database.Face) error {
	if len(face.Embedding) != database.FaceEmbeddingDim {
		return fmt.Errorf("embedding has dimension %d, want %d",
			len(face.Embedding), database.FaceEmbeddingDim)
	}

	err := s.pool.QueryRow(ctx, `
		INSERT INTO faces (photo_id, person_id, box_top, box_right, box_bottom, box_left, embedding, confidence)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`,
		face.PhotoID, face.PersonID,
		face.Box.Top, face.Box.Right, face.Box.Bottom, face.Box.Left,
		pgvector.NewVector(face.Embedding), face.Confidence,
	).Scan(&face.ID, &face.CreatedAt)
	if err != nil {
		return fmt.Errorf("create face: %w", err)
	}
	return nil
}

// GetFace returns one face by id.
func (s *Store) GetFace(ctx context.Context, id int64) (*database.Face, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+faceColumns+" FROM faces WHERE id = $1", id)

	face, err := scanFace(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrNotFound
		}
		return nil, fmt.Errorf("get face: %w", err)
	}
	return face, nil
}

// UnassignedFaces returns all faces with a null person reference, ascending id.
func (s *Store) UnassignedFaces(ctx context.Context) ([]database.Face, error) {
	return s.queryFaces(ctx,
		"SELECT "+faceColumns+" FROM faces WHERE person_id IS NULL ORDER BY id")
}

// FacesOfPerson returns a person's faces, ascending id.
func (s *Store) FacesOfPerson(ctx context.Context, personID int64) ([]database.Face, error) {
	return s.queryFaces(ctx,
		"SELECT "+faceColumns+" FROM faces WHERE person_id = $1 ORDER BY id", personID)
}

// FacesOfPhoto returns a photo's faces, ascending id.
func (s *Store) FacesOfPhoto(ctx context.Context, photoID int64) ([]database.Face, error) {
	return s.queryFaces(ctx,
		"SELECT "+faceColumns+" FROM faces WHERE photo_id = $1 ORDER BY id", photoID)
}

// AssignFace atomically points one face at a person. The target person must
// be a live identity.
func (s *Store) AssignFace(ctx context.Context, faceID, personID int64) error {
	res, err := s.pool.Exec(ctx, `
		UPDATE faces SET person_id = $2
		WHERE id = $1
		  AND EXISTS (SELECT 1 FROM persons WHERE id = $2 AND NOT is_merged)`,
		faceID, personID)
	if err != nil {
		return fmt.Errorf("assign face: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("assign face rows affected: %w", err)
	}
	if affected == 0 {
		return database.ErrNotFound
	}
	return nil
}

// AssignFaces points many faces at one person in a single transaction.
func (s *Store) AssignFaces(ctx context.Context, faceIDs []int64, personID int64) error {
	if len(faceIDs) == 0 {
		return nil
	}

	tx, err := s.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := assignFacesTx(ctx, tx, faceIDs, personID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit assign faces: %w", err)
	}
	return nil
}

func assignFacesTx(ctx context.Context, tx *sql.Tx, faceIDs []int64, personID int64) error {
	for _, faceID := range faceIDs {
		res, err := tx.ExecContext(ctx, `
			UPDATE faces SET person_id = $2
			WHERE id = $1
			  AND EXISTS (SELECT 1 FROM persons WHERE id = $2 AND NOT is_merged)`,
			faceID, personID)
		if err != nil {
			return fmt.Errorf("assign face %d: %w", faceID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("assign face %d rows affected: %w", faceID, err)
		}
		if affected == 0 {
			return database.ErrNotFound
		}
	}
	return nil
}

func (s *Store) queryFaces(ctx context.Context, query string, args ...any) ([]database.Face, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query faces: %w", err)
	}
	defer rows.Close()

	var faces []database.Face
	for rows.Next() {
		face, err := scanFace(rows)
		if err != nil {
			return nil, fmt.Errorf("scan face: %w", err)
		}
		faces = append(faces, *face)
	}
	return faces, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFace(row rowScanner) (*database.Face, error) {
	var (
		f        database.Face
		personID sql.NullInt64
		vec      pgvector.Vector
	)
	err := row.Scan(&f.ID, &f.PhotoID, &personID,
		&f.Box.Top, &f.Box.Right, &f.Box.Bottom, &f.Box.Left,
		&vec, &f.Confidence, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	if personID.Valid {
		id := personID.Int64
		f.PersonID = &id
	}
	f.Embedding = vec.Slice()
	return &f, nil
}
