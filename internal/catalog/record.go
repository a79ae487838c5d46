// Package catalog defines the media record model and the durable store that
// holds one record per tagged media object.
package catalog

import (
	"github.com/birdtag/birdtag-go/internal/tags"
)

// MediaKind classifies a media object.
type MediaKind string

const (
	KindImage MediaKind = "image"
	KindVideo MediaKind = "video"
	KindAudio MediaKind = "audio"
)

// UnknownOwner is stored when the uploading principal cannot be recovered.
const UnknownOwner = "unknown"

// NoThumbnail is stored as the thumbnail URL for kinds without one.
const NoThumbnail = "NO_URL"

// MediaRecord is one catalog entry for a tagged media object. Records are
// uniquely identified by (ObjectID, OwnerID); re-ingesting the same object
// for the same owner replaces the prior record.
type MediaRecord struct {
	ObjectID     string      `json:"object_id"`     // storage-layer key of the original object
	OwnerID      string      `json:"owner_id"`      // uploading principal, UnknownOwner if unrecoverable
	Kind         MediaKind   `json:"kind"`          // fixed at creation, never changed by mutation
	OriginalURL  string      `json:"original_url"`  // resolvable locator of the original object
	ThumbnailURL string      `json:"thumbnail_url"` // NoThumbnail for kinds without one
	Tags         tags.TagMap `json:"tags"`          // sentinel tag at minimum on ingestion; manual removal may empty it
}

// HasThumbnail reports whether the record carries a real thumbnail locator.
func (r *MediaRecord) HasThumbnail() bool {
	return r.ThumbnailURL != "" && r.ThumbnailURL != NoThumbnail
}
