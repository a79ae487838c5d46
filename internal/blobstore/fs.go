package blobstore

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/birdtag/birdtag-go/internal/errors"
	"github.com/birdtag/birdtag-go/internal/logging"
)

var fsLogger *slog.Logger

func init() {
	fsLogger = logging.ForService("blobstore")
	if fsLogger == nil {
		fsLogger = logging.NewDiscardLogger("blobstore")
	}
}

// FSStore is a Store backed by a local filesystem directory. Keys map to
// relative paths below the root; traversal outside the root is rejected.
type FSStore struct {
	root    string
	baseURL string // public base URL, no trailing slash
}

// NewFSStore creates the root directory if needed and returns a store
// rooted there.
func NewFSStore(root, baseURL string) (*FSStore, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryBlobStorage).
			Context("root", root).
			Component("blobstore").
			Build()
	}
	if err := os.MkdirAll(absRoot, 0o755); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryBlobStorage).
			Context("root", root).
			Component("blobstore").
			Build()
	}
	return &FSStore{
		root:    absRoot,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// resolvePath validates a key and maps it to an absolute path below root.
func (s *FSStore) resolvePath(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") {
		return "", errors.Newf("invalid object key: %q", key).
			Category(errors.CategoryValidation).
			Component("blobstore").
			Build()
	}
	full := filepath.Join(s.root, filepath.FromSlash(key))
	if full != s.root && !strings.HasPrefix(full, s.root+string(os.PathSeparator)) {
		return "", errors.Newf("object key escapes store root: %q", key).
			Category(errors.CategoryValidation).
			Component("blobstore").
			Build()
	}
	return full, nil
}

// Put stores content under key, replacing any existing object.
func (s *FSStore) Put(key string, r io.Reader) error {
	full, err := s.resolvePath(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return errors.New(err).
			Category(errors.CategoryBlobStorage).
			Context("key", key).
			Component("blobstore").
			Build()
	}

	f, err := os.Create(full)
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryBlobStorage).
			Context("key", key).
			Component("blobstore").
			Build()
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			fsLogger.Warn("Failed to close blob file", "key", key, "error", cerr)
		}
	}()

	if _, err := io.Copy(f, r); err != nil {
		return errors.New(err).
			Category(errors.CategoryBlobStorage).
			Context("key", key).
			Component("blobstore").
			Build()
	}
	return nil
}

// Open returns a reader over the object's content.
func (s *FSStore) Open(key string) (io.ReadCloser, error) {
	full, err := s.resolvePath(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		category := errors.CategoryBlobStorage
		if os.IsNotExist(err) {
			category = errors.CategoryNotFound
		}
		return nil, errors.New(err).
			Category(category).
			Context("key", key).
			Component("blobstore").
			Build()
	}
	return f, nil
}

// Copy duplicates the object at srcKey under dstKey.
func (s *FSStore) Copy(srcKey, dstKey string) error {
	src, err := s.Open(srcKey)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()
	return s.Put(dstKey, src)
}

// Delete removes the object stored under key.
func (s *FSStore) Delete(key string) error {
	full, err := s.resolvePath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		category := errors.CategoryBlobStorage
		if os.IsNotExist(err) {
			category = errors.CategoryNotFound
		}
		return errors.New(err).
			Category(category).
			Context("key", key).
			Component("blobstore").
			Build()
	}
	return nil
}

// Exists reports whether an object is stored under key.
func (s *FSStore) Exists(key string) bool {
	full, err := s.resolvePath(key)
	if err != nil {
		return false
	}
	info, err := os.Stat(full)
	return err == nil && !info.IsDir()
}

// URL returns the public locator for a key.
func (s *FSStore) URL(key string) string {
	return s.baseURL + "/" + key
}

// ResolveKey maps a locator back to a storage key. It accepts the public
// URL form and the blob:// scheme; anything else is not ours.
func (s *FSStore) ResolveKey(url string) (string, bool) {
	if key, found := strings.CutPrefix(url, s.baseURL+"/"); found && key != "" {
		return key, true
	}
	if key, found := strings.CutPrefix(url, BlobScheme); found && key != "" {
		return key, true
	}
	return "", false
}
