package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mvasek/face-gallery/internal/database"
)

const personSelect = `
	SELECT p.id, p.name, p.is_merged, p.merged_into_id, p.created_at,
	       (SELECT COUNT(DISTINCT f.photo_id) FROM faces f WHERE f.person_id = p.id),
	       (SELECT COUNT(*) FROM faces f WHERE f.person_id = p.id)
	FROM persons p`

// CreatePerson inserts a person with a fresh identifier.
func (s *Store) CreatePerson(ctx context.Context, name string) (*database.Person, error) {
	p := &database.Person{Name: name}
	err := s.pool.QueryRow(ctx,
		"INSERT INTO persons (name) VALUES ($1) RETURNING id, created_at", name,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create person: %w", err)
	}
	return p, nil
}

// CreatePersonWithFaces creates a person and assigns the given faces in one
// transaction. On any failure nothing is persisted, so a face never ends up
// half-attached and no orphan person is left behind.
func (s *Store) CreatePersonWithFaces(ctx context.Context, name string, faceIDs []int64) (*database.Person, error) {
	tx, err := s.pool.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	p := &database.Person{Name: name}
	err = tx.QueryRowContext(ctx,
		"INSERT INTO persons (name) VALUES ($1) RETURNING id, created_at", name,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create person: %w", err)
	}

	if err := assignFacesTx(ctx, tx, faceIDs, p.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create person with faces: %w", err)
	}
	return p, nil
}

// GetPerson returns one person with derived counts.
func (s *Store) GetPerson(ctx context.Context, id int64) (*database.Person, error) {
	row := s.pool.QueryRow(ctx, personSelect+" WHERE p.id = $1", id)
	p, err := scanPerson(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrNotFound
		}
		return nil, fmt.Errorf("get person: %w", err)
	}
	return p, nil
}

// ActivePersons returns all non-merged persons in ascending id order.
// The fixed order keeps incremental matching reproducible.
func (s *Store) ActivePersons(ctx context.Context) ([]database.Person, error) {
	rows, err := s.pool.Query(ctx, personSelect+" WHERE NOT p.is_merged ORDER BY p.id")
	if err != nil {
		return nil, fmt.Errorf("list active persons: %w", err)
	}
	defer rows.Close()

	var persons []database.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		persons = append(persons, *p)
	}
	return persons, rows.Err()
}

// RenamePerson updates a person's display name.
func (s *Store) RenamePerson(ctx context.Context, id int64, name string) error {
	res, err := s.pool.Exec(ctx, "UPDATE persons SET name = $2 WHERE id = $1", id, name)
	if err != nil {
		return fmt.Errorf("rename person: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rename person rows affected: %w", err)
	}
	if affected == 0 {
		return database.ErrNotFound
	}
	return nil
}

// CountPersons returns the total number of persons ever created, merged included.
// Placeholder names are derived from this count, so it must never shrink.
func (s *Store) CountPersons(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM persons").Scan(&count); err != nil {
		return 0, fmt.Errorf("count persons: %w", err)
	}
	return count, nil
}

// MergePersons re-points every face of the absorbed person to the survivor
// and flags the absorbed person as merged, all in one transaction.
func (s *Store) MergePersons(ctx context.Context, survivorID, absorbedID int64) error {
	tx, err := s.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, id := range []int64{survivorID, absorbedID} {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM persons WHERE id = $1)", id,
		).Scan(&exists); err != nil {
			return fmt.Errorf("check person %d: %w", id, err)
		}
		if !exists {
			return database.ErrNotFound
		}
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE faces SET person_id = $1 WHERE person_id = $2",
		survivorID, absorbedID); err != nil {
		return fmt.Errorf("move faces: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE persons SET is_merged = TRUE, merged_into_id = $1 WHERE id = $2",
		survivorID, absorbedID); err != nil {
		return fmt.Errorf("flag merged person: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit merge: %w", err)
	}
	return nil
}

// ClearAssignments wipes all person references and merge flags in one
// transaction, leaving every face unassigned for a full regroup.
func (s *Store) ClearAssignments(ctx context.Context) error {
	tx, err := s.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "UPDATE faces SET person_id = NULL"); err != nil {
		return fmt.Errorf("clear face assignments: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE persons SET is_merged = FALSE, merged_into_id = NULL"); err != nil {
		return fmt.Errorf("reset merge flags: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit clear assignments: %w", err)
	}
	return nil
}

func scanPerson(row rowScanner) (*database.Person, error) {
	var (
		p          database.Person
		mergedInto sql.NullInt64
	)
	err := row.Scan(&p.ID, &p.Name, &p.Merged, &mergedInto, &p.CreatedAt,
		&p.PhotoCount, &p.FaceCount)
	if err != nil {
		return nil, err
	}
	if mergedInto.Valid {
		id := mergedInto.Int64
		p.MergedInto = &id
	}
	return &p, nil
}
