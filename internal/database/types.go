package database

import (
	"fmt"
	"time"
)

// BoundingBox is the pixel-coordinate face rectangle within a photo.
// Coordinates follow the top/right/bottom/left convention of the detector.
type BoundingBox struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// Validate checks that the box describes a non-empty rectangle inside the image plane.
func (b BoundingBox) Validate() error {
	if b.Top < 0 || b.Left < 0 {
		return fmt.Errorf("bounding box has negative origin (top=%d, left=%d)", b.Top, b.Left)
	}
	if b.Bottom <= b.Top {
		return fmt.Errorf("bounding box bottom (%d) must be below top (%d)", b.Bottom, b.Top)
	}
	if b.Right <= b.Left {
		return fmt.Errorf("bounding box right (%d) must be right of left (%d)", b.Right, b.Left)
	}
	return nil
}

// Width returns the box width in pixels.
func (b BoundingBox) Width() int { return b.Right - b.Left }

// Height returns the box height in pixels.
func (b BoundingBox) Height() int { return b.Bottom - b.Top }

// Photo represents an uploaded photo and its processing state.
type Photo struct {
	ID           int64     `json:"id"`
	FileName     string    `json:"filename"`
	OriginalName string    `json:"original_filename"`
	FilePath     string    `json:"file_path"`
	FileSize     int64     `json:"file_size"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	Processed    bool      `json:"processed"`
	UploadedAt   time.Time `json:"uploaded_at"`

	// FaceCount is populated on reads that join the faces table.
	FaceCount int `json:"faces_count"`
}

// Face is a single face observation within a photo. The embedding and box are
// immutable once stored; only the person assignment changes over time.
type Face struct {
	ID         int64       `json:"id"`
	PhotoID    int64       `json:"photo_id"`
	PersonID   *int64      `json:"person_id"`
	Box        BoundingBox `json:"bounding_box"`
	Embedding  []float32   `json:"-"`
	Confidence float64     `json:"confidence"`
	CreatedAt  time.Time   `json:"created_at"`
}

// Assigned reports whether the face has been resolved to a person.
func (f *Face) Assigned() bool { return f.PersonID != nil }

// Person is a persistent identity that groups face observations.
// Merged persons are soft-retired: they keep their row forever and point to
// the surviving identity via MergedInto.
type Person struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Merged     bool      `json:"is_merged"`
	MergedInto *int64    `json:"merged_into_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`

	// Derived fields, populated on reads that join the faces table.
	PhotoCount int `json:"photo_count"`
	FaceCount  int `json:"face_count"`
}

// Active reports whether the person is a live identity that faces may be
// assigned to. Faces must never reference a merged person.
func (p *Person) Active() bool { return !p.Merged }

// RepresentativeFace picks the face that best represents a person: highest
// confidence, ties broken by lowest face id so the choice is deterministic.
func RepresentativeFace(faces []Face) *Face {
	var best *Face
	for i := range faces {
		f := &faces[i]
		if best == nil || f.Confidence > best.Confidence ||
			(f.Confidence == best.Confidence && f.ID < best.ID) {
			best = f
		}
	}
	return best
}

// Stats summarizes the gallery for the admin endpoint.
type Stats struct {
	TotalPhotos     int   `json:"total_photos"`
	ProcessedPhotos int   `json:"processed_photos"`
	TotalPersons    int   `json:"total_persons"`
	TotalFaces      int   `json:"total_faces"`
	StorageBytes    int64 `json:"storage_bytes"`
}
