package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mvasek/face-gallery/internal/database"
)

// Store implements database.Store on a PostgreSQL pool.
type Store struct {
	pool *Pool
}

// NewStore creates a PostgreSQL-backed store.
func NewStore(pool *Pool) *Store {
	return &Store{pool: pool}
}

// CreatePhoto inserts a photo row and fills in its generated id and timestamp.
func (s *Store) CreatePhoto(ctx context.Context, photo *database.Photo) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO photos (filename, original_name, file_path, file_size, width, height, processed)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, uploaded_at`,
		photo.FileName, photo.OriginalName, photo.FilePath,
		photo.FileSize, photo.Width, photo.Height, photo.Processed,
	).Scan(&photo.ID, &photo.UploadedAt)
	if err != nil {
		return fmt.Errorf("create photo: %w", err)
	}
	return nil
}

// GetPhoto returns one photo with its face count.
func (s *Store) GetPhoto(ctx context.Context, id int64) (*database.Photo, error) {
	var p database.Photo
	err := s.pool.QueryRow(ctx, `
		SELECT p.id, p.filename, p.original_name, p.file_path, p.file_size,
		       p.width, p.height, p.processed, p.uploaded_at,
		       (SELECT COUNT(*) FROM faces f WHERE f.photo_id = p.id)
		FROM photos p
		WHERE p.id = $1`, id,
	).Scan(&p.ID, &p.FileName, &p.OriginalName, &p.FilePath, &p.FileSize,
		&p.Width, &p.Height, &p.Processed, &p.UploadedAt, &p.FaceCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrNotFound
		}
		return nil, fmt.Errorf("get photo: %w", err)
	}
	return &p, nil
}

// ListPhotos returns a page of photos in ascending id order plus the total count.
func (s *Store) ListPhotos(ctx context.Context, limit, offset int) ([]database.Photo, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM photos").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count photos: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT p.id, p.filename, p.original_name, p.file_path, p.file_size,
		       p.width, p.height, p.processed, p.uploaded_at,
		       (SELECT COUNT(*) FROM faces f WHERE f.photo_id = p.id)
		FROM photos p
		ORDER BY p.id
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list photos: %w", err)
	}
	defer rows.Close()

	var photos []database.Photo
	for rows.Next() {
		var p database.Photo
		if err := rows.Scan(&p.ID, &p.FileName, &p.OriginalName, &p.FilePath, &p.FileSize,
			&p.Width, &p.Height, &p.Processed, &p.UploadedAt, &p.FaceCount); err != nil {
			return nil, 0, fmt.Errorf("scan photo: %w", err)
		}
		photos = append(photos, p)
	}
	return photos, total, rows.Err()
}

// DeletePhoto removes a photo; the faces FK cascade removes its faces.
func (s *Store) DeletePhoto(ctx context.Context, id int64) error {
	res, err := s.pool.Exec(ctx, "DELETE FROM photos WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete photo rows affected: %w", err)
	}
	if affected == 0 {
		return database.ErrNotFound
	}
	return nil
}

// MarkPhotoProcessed flags a photo as having completed face detection.
func (s *Store) MarkPhotoProcessed(ctx context.Context, id int64) error {
	res, err := s.pool.Exec(ctx, "UPDATE photos SET processed = TRUE WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("mark photo processed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark photo processed rows affected: %w", err)
	}
	if affected == 0 {
		return database.ErrNotFound
	}
	return nil
}

// GalleryStats aggregates counts for the admin stats endpoint.
func (s *Store) GalleryStats(ctx context.Context) (*database.Stats, error) {
	var st database.Stats
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM photos),
			(SELECT COUNT(*) FROM photos WHERE processed),
			(SELECT COUNT(*) FROM persons WHERE NOT is_merged),
			(SELECT COUNT(*) FROM faces),
			(SELECT COALESCE(SUM(file_size), 0) FROM photos)`,
	).Scan(&st.TotalPhotos, &st.ProcessedPhotos, &st.TotalPersons, &st.TotalFaces, &st.StorageBytes)
	if err != nil {
		return nil, fmt.Errorf("gallery stats: %w", err)
	}
	return &st, nil
}
