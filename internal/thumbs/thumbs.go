// Package thumbs generates JPEG thumbnails for uploaded photos.
package thumbs

import (
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // register decoder
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
)

// Generator scales photos down to a bounded edge length.
type Generator struct {
	maxSize int
	quality int
}

// NewGenerator creates a thumbnail generator. maxSize bounds the longer edge
// of the output, quality is the JPEG encoder quality.
func NewGenerator(maxSize, quality int) *Generator {
	return &Generator{maxSize: maxSize, quality: quality}
}

// Generate reads the photo at srcPath and writes its thumbnail to dstPath.
// Images already within bounds are re-encoded without scaling so the
// thumbnail is always a JPEG regardless of the source format.
func (g *Generator) Generate(srcPath, dstPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("open source image: %w", err)
	}
	defer src.Close()

	img, _, err := image.Decode(src)
	if err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(srcPath), err)
	}

	scaled := g.scale(img)

	dst, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("create thumbnail file: %w", err)
	}
	defer dst.Close()

	if err := jpeg.Encode(dst, scaled, &jpeg.Options{Quality: g.quality}); err != nil {
		return fmt.Errorf("encode thumbnail: %w", err)
	}
	return nil
}

// scale resizes img so its longer edge equals maxSize, preserving the aspect
// ratio. Smaller images pass through untouched.
func (g *Generator) scale(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= g.maxSize && h <= g.maxSize {
		return img
	}

	var nw, nh int
	if w > h {
		nw = g.maxSize
		nh = h * g.maxSize / w
	} else {
		nh = g.maxSize
		nw = w * g.maxSize / h
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	out := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.BiLinear.Scale(out, out.Bounds(), img, b, draw.Over, nil)
	return out
}

// Size reads the pixel dimensions of an image file without decoding it fully.
func Size(path string) (width, height int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("read image header: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}
