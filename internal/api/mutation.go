package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/birdtag/birdtag-go/internal/mutate"
)

// TagsRequest applies manual tag deltas to the listed files.
type TagsRequest struct {
	URL       []string `json:"url"`
	Operation int      `json:"operation"` // 1 adds, 0 removes
	Tags      []string `json:"tags"`      // "tag,count" entries
}

// TagsResponse reports how many records a tagging request touched.
type TagsResponse struct {
	Updated int `json:"updated"`
}

// ApplyTags handles POST /api/v1/tags.
func (c *Controller) ApplyTags(ctx echo.Context) error {
	var req TagsRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid tagging request body", http.StatusBadRequest)
	}

	touched, err := c.Mutate.ApplyManualTags(ctx.Request().Context(),
		req.URL, mutate.Op(req.Operation), req.Tags)
	if err != nil {
		return c.handleDomainError(ctx, err, "Applying tags failed")
	}
	return ctx.JSON(http.StatusOK, TagsResponse{Updated: touched})
}

// DeleteRequest lists original URLs to remove from the system.
type DeleteRequest struct {
	URLs []string `json:"urls"`
}

// DeleteResponse lists the storage keys that were removed.
type DeleteResponse struct {
	Deleted []string `json:"deleted"`
}

// DeleteFiles handles POST /api/v1/files/delete. Deletion is scoped to the
// requesting owner's records; blobs and image thumbnails cascade.
func (c *Controller) DeleteFiles(ctx echo.Context) error {
	var req DeleteRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid delete request body", http.StatusBadRequest)
	}

	processed, err := c.Mutate.DeleteObjects(ctx.Request().Context(),
		req.URLs, ownerFromRequest(ctx))
	if err != nil {
		return c.handleDomainError(ctx, err, "Deleting files failed")
	}
	if processed == nil {
		processed = []string{}
	}
	return ctx.JSON(http.StatusOK, DeleteResponse{Deleted: processed})
}
