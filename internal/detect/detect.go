// Package detect provides face detection for uploaded photos. The production
// provider talks to an external detection sidecar over HTTP; a deterministic
// fake provider covers development without a model.
package detect

import (
	"context"

	"github.com/mvasek/face-gallery/internal/database"
)

// Detection is one face found in an image: where it is, its embedding, and
// how confident the detector is.
type Detection struct {
	Box        database.BoundingBox
	Embedding  []float32
	Confidence float64
}

// Provider detects faces in an image file. Implementations may return an
// empty slice when no faces are present; an error means the whole image
// could not be processed.
type Provider interface {
	Detect(ctx context.Context, imagePath string) ([]Detection, error)
}
