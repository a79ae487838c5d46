// Package blobstore provides keyed storage for original media objects and
// their thumbnails, plus the key conventions shared across the system.
package blobstore

import (
	"io"
	"path"
	"strings"

	"github.com/birdtag/birdtag-go/internal/catalog"
)

// Conventional key prefixes. Freshly uploaded images land under the staging
// prefix and are promoted to the original prefix before ingestion.
const (
	ImageUploadPrefix    = "images/uploads/"
	ImageOriginalPrefix  = "images/original/"
	ImageThumbnailPrefix = "images/thumbnails/"
	VideoOriginalPrefix  = "videos/original/"
	AudioOriginalPrefix  = "audio/original/"
)

// BlobScheme is the non-HTTP locator scheme accepted alongside public URLs.
const BlobScheme = "blob://"

// Store is the blob storage contract consumed by the ingestion, mutation and
// deletion engines.
type Store interface {
	// Put stores content under key, replacing any existing object.
	Put(key string, r io.Reader) error
	// Open returns a reader over the object's content.
	Open(key string) (io.ReadCloser, error)
	// Copy duplicates the object at srcKey under dstKey.
	Copy(srcKey, dstKey string) error
	// Delete removes the object. Deleting a missing object is an error.
	Delete(key string) error
	// Exists reports whether an object is stored under key.
	Exists(key string) bool
	// URL returns the public locator for a key.
	URL(key string) string
	// ResolveKey maps a locator back to a storage key. ok is false for
	// locators outside this store.
	ResolveKey(url string) (key string, ok bool)
}

// MediaKindForKey infers the media kind from the key's conventional prefix,
// falling back to extension sniffing. Unknown keys default to video, which
// mirrors how untyped objects were historically treated.
func MediaKindForKey(key string) catalog.MediaKind {
	switch {
	case strings.HasPrefix(key, "images/"):
		return catalog.KindImage
	case strings.HasPrefix(key, "videos/"):
		return catalog.KindVideo
	case strings.HasPrefix(key, "audio/"):
		return catalog.KindAudio
	}

	switch strings.ToLower(path.Ext(key)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return catalog.KindImage
	case ".wav", ".mp3", ".flac", ".ogg", ".m4a":
		return catalog.KindAudio
	default:
		return catalog.KindVideo
	}
}

// IsOriginalImage reports whether key denotes an original image object,
// i.e. one that has a derived thumbnail.
func IsOriginalImage(key string) bool {
	return strings.HasPrefix(key, ImageOriginalPrefix)
}

// ThumbnailKey maps an original image key to its thumbnail key. Keys outside
// the original prefix map to themselves.
func ThumbnailKey(key string) string {
	if !IsOriginalImage(key) {
		return key
	}
	return ImageThumbnailPrefix + strings.TrimPrefix(key, ImageOriginalPrefix)
}

// PromotedKey maps a staging key to its original-area key. Keys outside the
// staging prefix map to themselves.
func PromotedKey(key string) string {
	if !strings.HasPrefix(key, ImageUploadPrefix) {
		return key
	}
	return ImageOriginalPrefix + strings.TrimPrefix(key, ImageUploadPrefix)
}

// OriginalKeyFor returns the original-area key for a fresh upload with the
// given filename and kind.
func OriginalKeyFor(filename string, kind catalog.MediaKind) string {
	name := path.Base(filename)
	switch kind {
	case catalog.KindImage:
		return ImageOriginalPrefix + name
	case catalog.KindAudio:
		return AudioOriginalPrefix + name
	default:
		return VideoOriginalPrefix + name
	}
}
