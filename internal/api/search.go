package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/birdtag/birdtag-go/internal/query"
	"github.com/birdtag/birdtag-go/internal/tags"
)

// SearchResponse carries query results.
type SearchResponse struct {
	Results []query.Summary `json:"results"`
	Count   int             `json:"count"`
}

func searchResponse(results []query.Summary) SearchResponse {
	if results == nil {
		results = []query.Summary{}
	}
	return SearchResponse{Results: results, Count: len(results)}
}

// SearchTagsByParams handles GET /api/v1/search/tags. Thresholds arrive as
// numbered query parameter pairs: tag1=crow&count1=2&tag2=owl&count2=1. The
// numbering need not be contiguous; a tagN without a matching countN is
// ignored.
func (c *Controller) SearchTagsByParams(ctx echo.Context) error {
	params := ctx.QueryParams()
	q := make(tags.TagMap)
	for key, values := range params {
		suffix, ok := strings.CutPrefix(key, "tag")
		if !ok || len(values) == 0 {
			continue
		}
		counts, ok := params["count"+suffix]
		if !ok || len(counts) == 0 {
			continue
		}

		count, err := strconv.ParseFloat(counts[0], 64)
		if err != nil || count < 0 {
			return c.HandleError(ctx, nil,
				fmt.Sprintf("count%s must be a non-negative number", suffix),
				http.StatusBadRequest)
		}
		q[values[0]] = count
	}

	results, err := c.Query.MatchAll(q)
	if err != nil {
		return c.handleDomainError(ctx, err, "Tag search failed")
	}
	return ctx.JSON(http.StatusOK, searchResponse(results))
}

// SearchTagsByBody handles POST /api/v1/search/tags with a JSON object of
// tag to minimum count.
func (c *Controller) SearchTagsByBody(ctx echo.Context) error {
	var q tags.TagMap
	if err := ctx.Bind(&q); err != nil {
		return c.HandleError(ctx, err, "Invalid tag query body", http.StatusBadRequest)
	}

	results, err := c.Query.MatchAll(q)
	if err != nil {
		return c.handleDomainError(ctx, err, "Tag search failed")
	}
	return ctx.JSON(http.StatusOK, searchResponse(results))
}

// SearchSpecies handles POST /api/v1/search/species with a JSON list of
// species names. A record matches when it contains any listed species.
func (c *Controller) SearchSpecies(ctx echo.Context) error {
	var species []string
	if err := ctx.Bind(&species); err != nil {
		return c.HandleError(ctx, err, "Invalid species list body", http.StatusBadRequest)
	}

	results, err := c.Query.MatchAny(species)
	if err != nil {
		return c.handleDomainError(ctx, err, "Species search failed")
	}
	return ctx.JSON(http.StatusOK, searchResponse(results))
}

// ThumbnailRequest asks for the original behind a thumbnail.
type ThumbnailRequest struct {
	ThumbnailURL string `json:"thumbnail_url"`
}

// ThumbnailResponse resolves a thumbnail to its original.
type ThumbnailResponse struct {
	OriginalURL string `json:"original_url"`
}

// SearchByThumbnail handles POST /api/v1/search/thumbnail.
func (c *Controller) SearchByThumbnail(ctx echo.Context) error {
	var req ThumbnailRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid thumbnail request body", http.StatusBadRequest)
	}

	original, err := c.Query.OriginalFromThumbnail(req.ThumbnailURL)
	if err != nil {
		return c.handleDomainError(ctx, err, "Thumbnail lookup failed")
	}
	return ctx.JSON(http.StatusOK, ThumbnailResponse{OriginalURL: original})
}

// SearchByFile handles POST /api/v1/search/file. The query arrives either as
// a multipart file field named "file" or as the raw request body.
func (c *Controller) SearchByFile(ctx echo.Context) error {
	content, err := queryFileContent(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "Reading query file failed", http.StatusBadRequest)
	}

	results, err := c.Query.MatchFromContent(content)
	if err != nil {
		return c.handleDomainError(ctx, err, "File-driven search failed")
	}
	return ctx.JSON(http.StatusOK, searchResponse(results))
}

func queryFileContent(ctx echo.Context) (string, error) {
	if file, err := ctx.FormFile("file"); err == nil {
		src, err := file.Open()
		if err != nil {
			return "", err
		}
		defer func() { _ = src.Close() }()
		data, err := io.ReadAll(src)
		return string(data), err
	}

	data, err := io.ReadAll(ctx.Request().Body)
	return string(data), err
}
