// Package thumbnail generates JPEG thumbnails for image objects.
package thumbnail

import (
	"bytes"
	"image"
	"image/jpeg"
	"io"

	// register the image formats we accept for decoding
	_ "image/gif"
	_ "image/png"

	"github.com/nfnt/resize"

	"github.com/birdtag/birdtag-go/internal/errors"
)

// Generator produces bounded-size JPEG thumbnails.
type Generator struct {
	maxPixels uint
	quality   int
}

// NewGenerator returns a generator producing thumbnails that fit within a
// maxPixels square, encoded as JPEG at the given quality.
func NewGenerator(maxPixels, quality int) *Generator {
	if maxPixels <= 0 {
		maxPixels = 128
	}
	if quality < 1 || quality > 100 {
		quality = 85
	}
	return &Generator{maxPixels: uint(maxPixels), quality: quality}
}

// Generate decodes an image and returns its JPEG thumbnail bytes, preserving
// aspect ratio.
func (g *Generator) Generate(r io.Reader) ([]byte, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, errors.Newf("decoding image: %w", err).
			Category(errors.CategoryImageProcessing).
			Component("thumbnail").
			Build()
	}

	thumb := resize.Thumbnail(g.maxPixels, g.maxPixels, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: g.quality}); err != nil {
		return nil, errors.Newf("encoding thumbnail: %w", err).
			Category(errors.CategoryImageProcessing).
			Context("source_format", format).
			Component("thumbnail").
			Build()
	}
	return buf.Bytes(), nil
}
