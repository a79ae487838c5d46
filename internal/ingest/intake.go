package ingest

import (
	"bytes"
	"context"
	"io"
	"path"

	"github.com/birdtag/birdtag-go/internal/blobstore"
	"github.com/birdtag/birdtag-go/internal/catalog"
	"github.com/birdtag/birdtag-go/internal/errors"
	"github.com/birdtag/birdtag-go/internal/thumbnail"
)

// Intake accepts uploaded media files: it lands them in the blob store under
// the conventional prefixes, derives image thumbnails and hands the landed
// key to the pipeline.
type Intake struct {
	blobs    blobstore.Store
	thumbs   *thumbnail.Generator
	pipeline *Pipeline
}

// NewIntake assembles the upload intake.
func NewIntake(blobs blobstore.Store, thumbs *thumbnail.Generator, pipeline *Pipeline) *Intake {
	return &Intake{blobs: blobs, thumbs: thumbs, pipeline: pipeline}
}

// Accept stores one uploaded file and ingests it. Images pass through the
// staging prefix, get a thumbnail and are promoted to the original area;
// video and audio land directly under their original prefix. Returns the
// stored catalog record.
func (in *Intake) Accept(ctx context.Context, filename string, content io.Reader, owner string) (catalog.MediaRecord, error) {
	name := path.Base(filename)
	if name == "" || name == "." || name == "/" {
		return catalog.MediaRecord{}, errors.Newf("upload filename is empty").
			Category(errors.CategoryValidation).
			Component("ingest").
			Build()
	}

	kind := blobstore.MediaKindForKey(name)

	var originalKey string
	var err error
	if kind == catalog.KindImage {
		originalKey, err = in.landImage(name, content)
	} else {
		originalKey = blobstore.OriginalKeyFor(name, kind)
		err = in.blobs.Put(originalKey, content)
	}
	if err != nil {
		return catalog.MediaRecord{}, err
	}

	return in.pipeline.Run(ctx, ObjectLanded{Key: originalKey, Owner: owner})
}

// landImage stages an image upload, writes its thumbnail and promotes it to
// the original area. The staging object is removed afterwards; a failed
// removal leaves garbage but not an inconsistent catalog.
func (in *Intake) landImage(name string, content io.Reader) (string, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return "", errors.Newf("reading upload: %w", err).
			Category(errors.CategoryFileIO).
			Component("ingest").
			Build()
	}

	thumb, err := in.thumbs.Generate(bytes.NewReader(data))
	if err != nil {
		return "", errors.Newf("generating thumbnail for %s: %w", name, err).
			Category(errors.CategoryImageProcessing).
			Component("ingest").
			Build()
	}

	stagingKey := blobstore.ImageUploadPrefix + name
	if err := in.blobs.Put(stagingKey, bytes.NewReader(data)); err != nil {
		return "", err
	}

	originalKey := blobstore.PromotedKey(stagingKey)
	if err := in.blobs.Put(blobstore.ThumbnailKey(originalKey), bytes.NewReader(thumb)); err != nil {
		return "", err
	}
	if err := in.blobs.Copy(stagingKey, originalKey); err != nil {
		return "", err
	}
	if err := in.blobs.Delete(stagingKey); err != nil {
		logger.Warn("Removing staged upload failed", "key", stagingKey, "error", err)
	}
	return originalKey, nil
}
