package database

import (
	"errors"
	"sync"

	"github.com/coder/hnsw"
)

// hnswMaxNeighbors is the M parameter of the HNSW graph.
const hnswMaxNeighbors = 16

// FaceCandidate is a search hit from the face index: a face, the person it is
// currently assigned to, and its exact Euclidean distance from the query.
type FaceCandidate struct {
	FaceID   int64
	PersonID int64
	Distance float64
}

// FaceIndex is an in-memory HNSW index over the embeddings of assigned faces.
// The incremental matcher uses it to order candidate persons by proximity
// before verifying matches with exact distances; it is an accelerator only
// and never the source of truth.
type FaceIndex struct {
	mu       sync.RWMutex
	graph    *hnsw.Graph[int64]
	faceToPe map[int64]int64 // face id -> assigned person id
}

// NewFaceIndex creates an empty face index.
func NewFaceIndex() *FaceIndex {
	return &FaceIndex{faceToPe: make(map[int64]int64)}
}

func newFaceGraph() *hnsw.Graph[int64] {
	g := hnsw.NewGraph[int64]()
	g.M = hnswMaxNeighbors
	g.Ml = 1.0 / float64(hnswMaxNeighbors)
	g.Distance = hnsw.EuclideanDistance
	return g
}

// Build replaces the index contents with the given assigned faces.
// Faces without an embedding or person reference are skipped.
func (x *FaceIndex) Build(faces []Face) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.graph = nil
	x.faceToPe = make(map[int64]int64, len(faces))
	if len(faces) == 0 {
		return
	}

	g := newFaceGraph()
	for i := range faces {
		f := &faces[i]
		if len(f.Embedding) == 0 || f.PersonID == nil {
			continue
		}
		g.Add(hnsw.MakeNode(f.ID, f.Embedding))
		x.faceToPe[f.ID] = *f.PersonID
	}
	x.graph = g
}

// Add indexes one newly assigned face.
func (x *FaceIndex) Add(face *Face) {
	if len(face.Embedding) == 0 || face.PersonID == nil {
		return
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if x.graph == nil {
		x.graph = newFaceGraph()
	}
	x.graph.Add(hnsw.MakeNode(face.ID, face.Embedding))
	x.faceToPe[face.ID] = *face.PersonID
}

// Reassign repoints an indexed face at a different person. Used after merges.
func (x *FaceIndex) Reassign(faceID, personID int64) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if _, ok := x.faceToPe[faceID]; ok {
		x.faceToPe[faceID] = personID
	}
}

// Search returns up to k candidate faces nearest to the query embedding with
// exact Euclidean distances. Faces dropped from the person map (deleted
// photos) are filtered out.
func (x *FaceIndex) Search(query []float32, k int) ([]FaceCandidate, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.graph == nil {
		return nil, errors.New("face index is empty")
	}

	neighbors := x.graph.Search(query, k)
	candidates := make([]FaceCandidate, 0, len(neighbors))
	for _, n := range neighbors {
		personID, ok := x.faceToPe[n.Key]
		if !ok {
			continue
		}
		candidates = append(candidates, FaceCandidate{
			FaceID:   n.Key,
			PersonID: personID,
			Distance: EuclideanDistance(query, n.Value),
		})
	}
	return candidates, nil
}

// Remove drops a face from search results. The HNSW graph has no true
// deletion; the face stays in the graph but is filtered out on lookup.
func (x *FaceIndex) Remove(faceID int64) {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.faceToPe, faceID)
}

// Count returns the number of searchable faces.
func (x *FaceIndex) Count() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.faceToPe)
}
