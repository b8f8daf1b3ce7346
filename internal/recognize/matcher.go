package recognize

import (
	"context"
	"fmt"

	"github.com/mvasek/face-gallery/internal/database"
)

// matchFace finds the person a new face belongs to, or 0 when nothing is
// within tolerance. Persons are examined in ascending id order and the first
// one with any face closer than the tolerance wins, so repeated runs over the
// same data resolve identically.
//
// The HNSW index is a shortcut, never the decider. A candidate within
// tolerance proves that its person matches, but a person with many close
// faces can crowd lower-id matches out of the candidate window, so the
// scan still confirms no earlier person matches before the candidate is
// accepted. A window with no match falls back to the full scan.
func (s *Service) matchFace(ctx context.Context, embedding []float32) (int64, error) {
	if s.index == nil || s.index.Count() == 0 {
		return s.matchFaceScan(ctx, embedding, 0)
	}

	candidate, err := s.matchFaceIndexed(embedding)
	if err != nil {
		return 0, err
	}
	if candidate == 0 {
		return s.matchFaceScan(ctx, embedding, 0)
	}

	earlier, err := s.matchFaceScan(ctx, embedding, candidate)
	if err != nil {
		return 0, err
	}
	if earlier != 0 {
		return earlier, nil
	}
	return candidate, nil
}

// matchFaceScan walks persons in ascending id order and returns the first
// one with any face within tolerance. When below is nonzero only persons
// with a smaller id are examined.
func (s *Service) matchFaceScan(ctx context.Context, embedding []float32, below int64) (int64, error) {
	persons, err := s.store.ActivePersons(ctx)
	if err != nil {
		return 0, fmt.Errorf("list persons: %w", err)
	}

	for _, p := range persons {
		if below != 0 && p.ID >= below {
			break
		}
		faces, err := s.store.FacesOfPerson(ctx, p.ID)
		if err != nil {
			return 0, fmt.Errorf("list faces of person %d: %w", p.ID, err)
		}
		for _, f := range faces {
			if len(f.Embedding) != s.dim {
				continue
			}
			if database.EuclideanDistance(embedding, f.Embedding) <= s.tolerance {
				return p.ID, nil
			}
		}
	}
	return 0, nil
}

// matchFaceIndexed returns the lowest person id among the within-tolerance
// index candidates, or 0 when the window holds none. Candidate distances are
// exact, so a hit is a true match.
func (s *Service) matchFaceIndexed(embedding []float32) (int64, error) {
	candidates, err := s.index.Search(embedding, s.candidates)
	if err != nil {
		return 0, fmt.Errorf("index search: %w", err)
	}

	var best int64
	for _, c := range candidates {
		if c.Distance > s.tolerance {
			continue
		}
		if best == 0 || c.PersonID < best {
			best = c.PersonID
		}
	}
	return best, nil
}
