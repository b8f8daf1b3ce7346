package detect

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func writeTempImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "photo.jpg")
	if err := os.WriteFile(path, []byte("not-really-a-jpeg"), 0o600); err != nil {
		t.Fatalf("write temp image: %v", err)
	}
	return path
}

func TestHTTPProviderDetect(t *testing.T) {
	embedding := make([]float32, 128)
	embedding[0] = 0.5

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/detect" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		if _, _, err := r.FormFile("file"); err != nil {
			http.Error(w, "missing file", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"faces": []map[string]any{
				{
					"top": 10, "right": 110, "bottom": 90, "left": 30,
					"embedding": embedding, "confidence": 0.92,
				},
			},
		})
	}))
	defer server.Close()

	provider := NewHTTPProvider(server.URL, 128)
	detections, err := provider.Detect(context.Background(), writeTempImage(t))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(detections) != 1 {
		t.Fatalf("detections = %d, want 1", len(detections))
	}
	d := detections[0]
	if d.Box.Top != 10 || d.Box.Right != 110 || d.Box.Bottom != 90 || d.Box.Left != 30 {
		t.Errorf("box = %+v", d.Box)
	}
	if d.Confidence != 0.92 {
		t.Errorf("confidence = %v, want 0.92", d.Confidence)
	}
	if len(d.Embedding) != 128 || d.Embedding[0] != 0.5 {
		t.Errorf("embedding not round-tripped")
	}
}

func TestHTTPProviderRejectsWrongDimension(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"faces": []map[string]any{
				{
					"top": 0, "right": 10, "bottom": 10, "left": 0,
					"embedding": []float32{1, 2, 3}, "confidence": 0.9,
				},
			},
		})
	}))
	defer server.Close()

	provider := NewHTTPProvider(server.URL, 128)
	if _, err := provider.Detect(context.Background(), writeTempImage(t)); err == nil {
		t.Error("expected dimension error")
	}
}

func TestHTTPProviderServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model crashed", http.StatusInternalServerError)
	}))
	defer server.Close()

	provider := NewHTTPProvider(server.URL, 128)
	if _, err := provider.Detect(context.Background(), writeTempImage(t)); err == nil {
		t.Error("expected error on 500 response")
	}
}

func TestFakeProviderDeterministic(t *testing.T) {
	provider := NewFakeProvider(128)
	path := writeTempImage(t)

	first, err := provider.Detect(context.Background(), path)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	second, err := provider.Detect(context.Background(), path)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}

	if len(first) == 0 || len(first) > 3 {
		t.Fatalf("detections = %d, want 1-3", len(first))
	}
	if len(first) != len(second) {
		t.Fatalf("detection count differs between runs: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Box != second[i].Box {
			t.Errorf("face %d box differs between runs", i)
		}
		for j := range first[i].Embedding {
			if first[i].Embedding[j] != second[i].Embedding[j] {
				t.Fatalf("face %d embedding differs between runs", i)
			}
		}
	}
}

func TestFakeProviderValidOutput(t *testing.T) {
	provider := NewFakeProvider(128)
	detections, err := provider.Detect(context.Background(), writeTempImage(t))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	for i, d := range detections {
		if err := d.Box.Validate(); err != nil {
			t.Errorf("face %d: invalid box: %v", i, err)
		}
		if len(d.Embedding) != 128 {
			t.Errorf("face %d: embedding dim = %d, want 128", i, len(d.Embedding))
		}
		if d.Confidence < 0 || d.Confidence > 1 {
			t.Errorf("face %d: confidence %v out of range", i, d.Confidence)
		}
	}
}
