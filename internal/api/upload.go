package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/birdtag/birdtag-go/internal/tags"
)

// UploadResponse describes the catalog record created for an upload.
type UploadResponse struct {
	ObjectID     string      `json:"object_id"`
	Kind         string      `json:"kind"`
	OriginalURL  string      `json:"original_url"`
	ThumbnailURL string      `json:"thumbnail_url"`
	Tags         tags.TagMap `json:"tags"`
}

// Upload handles POST /api/v1/upload: a multipart file field named "file"
// lands in the blob store and is ingested synchronously.
func (c *Controller) Upload(ctx echo.Context) error {
	file, err := ctx.FormFile("file")
	if err != nil {
		return c.HandleError(ctx, err, "Upload requires a multipart \"file\" field",
			http.StatusBadRequest)
	}

	src, err := file.Open()
	if err != nil {
		return c.HandleError(ctx, err, "Opening uploaded file failed",
			http.StatusBadRequest)
	}
	defer func() { _ = src.Close() }()

	record, err := c.Intake.Accept(ctx.Request().Context(),
		file.Filename, src, ownerFromRequest(ctx))
	if err != nil {
		return c.handleDomainError(ctx, err, "Upload failed")
	}

	return ctx.JSON(http.StatusCreated, UploadResponse{
		ObjectID:     record.ObjectID,
		Kind:         string(record.Kind),
		OriginalURL:  record.OriginalURL,
		ThumbnailURL: record.ThumbnailURL,
		Tags:         record.Tags,
	})
}
