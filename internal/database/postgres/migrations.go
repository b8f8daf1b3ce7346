package postgres

import (
	"context"
	"fmt"

	"github.com/mvasek/face-gallery/internal/database"
)

// Migrate creates the schema. Deleting a photo cascades to its faces;
// persons are never deleted, only soft-retired via is_merged/merged_into_id.
func (p *Pool) Migrate(ctx context.Context) error {
	if _, err := p.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	createPhotos := `
		CREATE TABLE IF NOT EXISTS photos (
			id            BIGSERIAL PRIMARY KEY,
			filename      VARCHAR(255) NOT NULL UNIQUE,
			original_name VARCHAR(255) NOT NULL,
			file_path     VARCHAR(500) NOT NULL,
			file_size     BIGINT NOT NULL DEFAULT 0,
			width         INTEGER NOT NULL DEFAULT 0,
			height        INTEGER NOT NULL DEFAULT 0,
			processed     BOOLEAN NOT NULL DEFAULT FALSE,
			uploaded_at   TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`
	if _, err := p.Exec(ctx, createPhotos); err != nil {
		return fmt.Errorf("failed to create photos table: %w", err)
	}

	createPersons := `
		CREATE TABLE IF NOT EXISTS persons (
			id             BIGSERIAL PRIMARY KEY,
			name           VARCHAR(100) NOT NULL,
			is_merged      BOOLEAN NOT NULL DEFAULT FALSE,
			merged_into_id BIGINT REFERENCES persons(id),
			created_at     TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`
	if _, err := p.Exec(ctx, createPersons); err != nil {
		return fmt.Errorf("failed to create persons table: %w", err)
	}

	createFaces := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS faces (
			id         BIGSERIAL PRIMARY KEY,
			photo_id   BIGINT NOT NULL REFERENCES photos(id) ON DELETE CASCADE,
			person_id  BIGINT REFERENCES persons(id),
			box_top    INTEGER NOT NULL,
			box_right  INTEGER NOT NULL,
			box_bottom INTEGER NOT NULL,
			box_left   INTEGER NOT NULL,
			embedding  vector(%d) NOT NULL,
			confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`, database.FaceEmbeddingDim)
	if _, err := p.Exec(ctx, createFaces); err != nil {
		return fmt.Errorf("failed to create faces table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS faces_photo_id_idx ON faces(photo_id)",
		"CREATE INDEX IF NOT EXISTS faces_person_id_idx ON faces(person_id)",
		"CREATE INDEX IF NOT EXISTS persons_is_merged_idx ON persons(is_merged)",
	}
	for _, idx := range indexes {
		if _, err := p.Exec(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

// CreateVectorIndex creates the IVFFlat index for embedding search.
// Called once the faces table has enough rows to make it worthwhile.
func (p *Pool) CreateVectorIndex(ctx context.Context) error {
	_, err := p.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS faces_embedding_idx
		ON faces USING ivfflat (embedding vector_l2_ops) WITH (lists = 100)
	`)
	if err != nil {
		return fmt.Errorf("failed to create vector index: %w", err)
	}
	return nil
}
