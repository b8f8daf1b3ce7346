package database

import "testing"

func TestBoundingBoxValidate(t *testing.T) {
	tests := []struct {
		name    string
		box     BoundingBox
		wantErr bool
	}{
		{"valid", BoundingBox{Top: 10, Right: 100, Bottom: 90, Left: 20}, false},
		{"zero origin", BoundingBox{Top: 0, Right: 50, Bottom: 50, Left: 0}, false},
		{"negative top", BoundingBox{Top: -1, Right: 50, Bottom: 50, Left: 0}, true},
		{"negative left", BoundingBox{Top: 0, Right: 50, Bottom: 50, Left: -5}, true},
		{"inverted vertical", BoundingBox{Top: 60, Right: 50, Bottom: 50, Left: 0}, true},
		{"inverted horizontal", BoundingBox{Top: 0, Right: 10, Bottom: 50, Left: 20}, true},
		{"empty", BoundingBox{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.box.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBoundingBoxDimensions(t *testing.T) {
	b := BoundingBox{Top: 10, Right: 110, Bottom: 60, Left: 30}
	if got := b.Width(); got != 80 {
		t.Errorf("Width() = %d, want 80", got)
	}
	if got := b.Height(); got != 50 {
		t.Errorf("Height() = %d, want 50", got)
	}
}

func TestRepresentativeFace(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		if got := RepresentativeFace(nil); got != nil {
			t.Errorf("expected nil for no faces, got %+v", got)
		}
	})

	t.Run("highest confidence wins", func(t *testing.T) {
		faces := []Face{
			{ID: 1, Confidence: 0.5},
			{ID: 2, Confidence: 0.9},
			{ID: 3, Confidence: 0.7},
		}
		got := RepresentativeFace(faces)
		if got == nil || got.ID != 2 {
			t.Errorf("expected face 2, got %+v", got)
		}
	})

	t.Run("ties break on lowest id", func(t *testing.T) {
		faces := []Face{
			{ID: 7, Confidence: 0.8},
			{ID: 3, Confidence: 0.8},
			{ID: 5, Confidence: 0.8},
		}
		got := RepresentativeFace(faces)
		if got == nil || got.ID != 3 {
			t.Errorf("expected face 3, got %+v", got)
		}
	})
}
