package detect

import (
	"context"
	"hash/fnv"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/mvasek/face-gallery/internal/database"
)

// FakeProvider generates pseudo-detections without a model, for development
// and demos. Detections are derived from a hash of the file name, so the
// same file always produces the same faces.
type FakeProvider struct {
	dim int
}

// NewFakeProvider creates a fake detector producing embeddings of the given
// dimensionality.
func NewFakeProvider(dim int) *FakeProvider {
	return &FakeProvider{dim: dim}
}

// Detect fabricates one to three faces inside the image bounds.
func (p *FakeProvider) Detect(ctx context.Context, imagePath string) ([]Detection, error) {
	width, height := p.imageSize(imagePath)

	h := fnv.New64a()
	h.Write([]byte(filepath.Base(imagePath)))
	seed := h.Sum64()
	rng := rand.New(rand.NewPCG(seed, seed))

	n := 1 + rng.IntN(3)
	detections := make([]Detection, 0, n)
	for i := 0; i < n; i++ {
		maxSize := min(width, height) / 3
		if maxSize < 50 {
			maxSize = 50
		}
		size := 50 + rng.IntN(maxSize)
		top := rng.IntN(max(1, height-size))
		left := rng.IntN(max(1, width-size))

		embedding := make([]float32, p.dim)
		for j := range embedding {
			embedding[j] = rng.Float32()
		}

		detections = append(detections, Detection{
			Box: database.BoundingBox{
				Top:    top,
				Left:   left,
				Bottom: min(top+size, height),
				Right:  min(left+size, width),
			},
			Embedding:  embedding,
			Confidence: 0.7 + 0.25*rng.Float64(),
		})
	}
	return detections, nil
}

// imageSize reads the image header for dimensions, falling back to a fixed
// frame when the file cannot be decoded.
func (p *FakeProvider) imageSize(imagePath string) (int, int) {
	f, err := os.Open(imagePath)
	if err != nil {
		return 1024, 768
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil || cfg.Width < 100 || cfg.Height < 100 {
		return 1024, 768
	}
	return cfg.Width, cfg.Height
}
