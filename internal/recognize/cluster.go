package recognize

import (
	"context"
	"fmt"
	"log"

	"github.com/mvasek/face-gallery/internal/database"
)

// groupUnassignedLocked clusters all unassigned faces into persons. Caller
// holds s.mu.
//
// Clustering is density based with the match tolerance as the neighborhood
// radius and a minimum cluster size of one: two faces within tolerance of
// each other always end up in the same person, and a face with no neighbors
// becomes a person of its own rather than noise. With that minimum the
// clusters are exactly the connected components of the within-tolerance
// graph, which a breadth first expansion computes in O(N^2) distance checks.
func (s *Service) groupUnassignedLocked(ctx context.Context) (int, error) {
	all, err := s.store.UnassignedFaces(ctx)
	if err != nil {
		return 0, fmt.Errorf("list unassigned faces: %w", err)
	}

	faces := all[:0:0]
	for _, f := range all {
		if len(f.Embedding) != s.dim {
			log.Printf("face %d: embedding has dimension %d, want %d, skipping", f.ID, len(f.Embedding), s.dim)
			continue
		}
		faces = append(faces, f)
	}
	if len(faces) == 0 {
		return 0, nil
	}

	clusters := clusterFaces(faces, s.tolerance)

	count, err := s.store.CountPersons(ctx)
	if err != nil {
		return 0, fmt.Errorf("count persons: %w", err)
	}

	created := 0
	for _, cluster := range clusters {
		ids := make([]int64, len(cluster))
		for i, f := range cluster {
			ids[i] = f.ID
		}
		name := fmt.Sprintf("Person %d", count+1)
		person, err := s.store.CreatePersonWithFaces(ctx, name, ids)
		if err != nil {
			return created, fmt.Errorf("create person for cluster of %d faces: %w", len(ids), err)
		}
		count++
		created++

		if s.index != nil {
			for i := range cluster {
				f := cluster[i]
				f.PersonID = &person.ID
				s.index.Add(&f)
			}
		}
	}
	return created, nil
}

// clusterFaces partitions faces into connected components where edges join
// faces within eps of each other. Faces arrive in ascending id order and the
// expansion starts from the lowest unvisited id, so component order and
// membership are deterministic.
func clusterFaces(faces []database.Face, eps float64) [][]database.Face {
	visited := make([]bool, len(faces))
	var clusters [][]database.Face

	for i := range faces {
		if visited[i] {
			continue
		}
		visited[i] = true

		cluster := []database.Face{faces[i]}
		frontier := []int{i}
		for len(frontier) > 0 {
			cur := frontier[0]
			frontier = frontier[1:]
			for j := range faces {
				if visited[j] {
					continue
				}
				if database.EuclideanDistance(faces[cur].Embedding, faces[j].Embedding) <= eps {
					visited[j] = true
					cluster = append(cluster, faces[j])
					frontier = append(frontier, j)
				}
			}
		}
		clusters = append(clusters, cluster)
	}
	return clusters
}
