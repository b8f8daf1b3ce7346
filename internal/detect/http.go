package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mvasek/face-gallery/internal/database"
)

const defaultDetectorURL = "http://localhost:8000"

// HTTPProvider calls a face detection sidecar over HTTP. The sidecar accepts
// a multipart image upload on POST /detect and returns one entry per face.
type HTTPProvider struct {
	baseURL string
	dim     int
	client  *http.Client
}

// NewHTTPProvider creates a detector client. dim is the expected embedding
// dimensionality; responses with any other dimension are rejected.
func NewHTTPProvider(baseURL string, dim int) *HTTPProvider {
	if baseURL == "" {
		baseURL = defaultDetectorURL
	}
	return &HTTPProvider{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		dim:     dim,
		client:  &http.Client{Timeout: 2 * time.Minute},
	}
}

type detectionPayload struct {
	Top        int       `json:"top"`
	Right      int       `json:"right"`
	Bottom     int       `json:"bottom"`
	Left       int       `json:"left"`
	Embedding  []float32 `json:"embedding"`
	Confidence float64   `json:"confidence"`
}

type detectResponse struct {
	Faces []detectionPayload `json:"faces"`
}

// Detect posts the image to the sidecar and maps its response.
func (p *HTTPProvider) Detect(ctx context.Context, imagePath string) ([]Detection, error) {
	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(imagePath))
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/detect", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("detector error (status %d): %s", resp.StatusCode, string(body))
	}

	var parsed detectResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	detections := make([]Detection, 0, len(parsed.Faces))
	for i, f := range parsed.Faces {
		if len(f.Embedding) != p.dim {
			return nil, fmt.Errorf("face %d: embedding has dimension %d, want %d",
				i, len(f.Embedding), p.dim)
		}
		d := Detection{
			Box: database.BoundingBox{
				Top: f.Top, Right: f.Right, Bottom: f.Bottom, Left: f.Left,
			},
			Embedding:  f.Embedding,
			Confidence: f.Confidence,
		}
		if err := d.Box.Validate(); err != nil {
			return nil, fmt.Errorf("face %d: %w", i, err)
		}
		detections = append(detections, d)
	}
	return detections, nil
}
