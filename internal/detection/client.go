// Package detection talks to the external species detection service. The
// service output is authoritative but untrusted; callers pass it through the
// tag sanitizer before storing anything.
package detection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/birdtag/birdtag-go/internal/catalog"
	"github.com/birdtag/birdtag-go/internal/errors"
	"github.com/birdtag/birdtag-go/internal/logging"
	"github.com/birdtag/birdtag-go/internal/observability/metrics"
)

var logger *slog.Logger

func init() {
	logger = logging.ForService("detection")
	if logger == nil {
		logger = logging.NewDiscardLogger("detection")
	}
}

var serviceMetrics atomic.Pointer[metrics.DetectionMetrics]

// SetMetrics attaches Prometheus collectors to all clients in this package.
// Safe to call at any time; a nil value detaches.
func SetMetrics(m *metrics.DetectionMetrics) {
	serviceMetrics.Store(m)
}

func getServiceMetrics() *metrics.DetectionMetrics {
	return serviceMetrics.Load()
}

// Client calls the detection service's /predict/{kind} endpoint. It performs
// no retries; any failure is reported to the caller, which degrades to the
// sentinel tag.
type Client struct {
	config     Config
	httpClient *http.Client
	cache      *cache.Cache

	metrics struct {
		mu       sync.Mutex
		requests int64
		failures int64
		hits     int64
	}
}

// NewClient creates a detection service client.
func NewClient(config Config) (*Client, error) {
	if config.BaseURL == "" {
		return nil, errors.Newf("detection service base URL is required").
			Category(errors.CategoryConfiguration).
			Component("detection").
			Build()
	}

	c := &Client{
		config: config,
		// per-request deadlines come from the per-kind context timeout
		httpClient: &http.Client{},
	}
	if config.CacheTTL > 0 {
		c.cache = cache.New(config.CacheTTL, config.CacheTTL*2)
	}

	logger.Info("Detection client initialized",
		"base_url", config.BaseURL,
		"cache_ttl", config.CacheTTL,
		"video_timeout", config.VideoTimeout)
	return c, nil
}

// fileField returns the multipart field name the service expects per kind.
func fileField(kind catalog.MediaKind) string {
	switch kind {
	case catalog.KindImage:
		return "image_file"
	case catalog.KindAudio:
		return "audio_file"
	default:
		return "video_file"
	}
}

// Detect posts the object content to the detection service and returns the
// raw, unsanitized tag mapping. objectKey is used only for result caching.
func (c *Client) Detect(ctx context.Context, objectKey string, kind catalog.MediaKind, content io.Reader) (map[string]any, error) {
	if c.cache != nil {
		if cached, found := c.cache.Get(objectKey); found {
			if tags, ok := cached.(map[string]any); ok {
				c.metrics.mu.Lock()
				c.metrics.hits++
				c.metrics.mu.Unlock()
				if m := getServiceMetrics(); m != nil {
					m.RecordCacheHit()
				}
				logger.Debug("Detection cache hit", "object_key", objectKey)
				return tags, nil
			}
		}
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(fileField(kind), path.Base(objectKey))
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryDetection).
			Component("detection").
			Build()
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, errors.Newf("reading object content: %w", err).
			Category(errors.CategoryFileIO).
			Context("object_key", objectKey).
			Component("detection").
			Build()
	}
	if err := writer.Close(); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryDetection).
			Component("detection").
			Build()
	}

	tags, err := c.post(ctx, kind, &body, writer.FormDataContentType())
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.Set(objectKey, tags, cache.DefaultExpiration)
	}
	return tags, nil
}

// DetectImageURL asks the service to fetch and classify a remote image
// itself instead of receiving the bytes.
func (c *Client) DetectImageURL(ctx context.Context, imageURL string) (map[string]any, error) {
	form := url.Values{"image_url": {imageURL}}
	return c.post(ctx, catalog.KindImage,
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
}

func (c *Client) post(ctx context.Context, kind catalog.MediaKind, body io.Reader, contentType string) (map[string]any, error) {
	c.metrics.mu.Lock()
	c.metrics.requests++
	c.metrics.mu.Unlock()

	reqCtx, cancel := context.WithTimeout(ctx, c.config.timeoutFor(kind))
	defer cancel()

	endpoint := fmt.Sprintf("%s/predict/%s", strings.TrimSuffix(c.config.BaseURL, "/"), kind)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, c.fail(errors.Newf("creating detection request: %w", err).
			Category(errors.CategoryDetection), endpoint, kind)
	}
	req.Header.Set("Content-Type", contentType)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		category := errors.CategoryNetwork
		if reqCtx.Err() != nil {
			category = errors.CategoryTimeout
		}
		return nil, c.fail(errors.Newf("detection request failed: %w", err).Category(category), endpoint, kind)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.fail(errors.Newf("reading detection response: %w", err).
			Category(errors.CategoryNetwork), endpoint, kind)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.fail(errors.Newf("detection service returned status %d", resp.StatusCode).
			Category(errors.CategoryDetection).
			Context("status_code", resp.StatusCode), endpoint, kind)
	}

	var decoded response
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, c.fail(errors.Newf("parsing detection response: %w", err).
			Category(errors.CategoryFileParsing), endpoint, kind)
	}

	if m := getServiceMetrics(); m != nil {
		m.RecordRequest(string(kind), "success")
		m.RecordDuration(string(kind), time.Since(start).Seconds())
	}
	logger.Debug("Detection request completed",
		"endpoint", endpoint,
		"duration_ms", time.Since(start).Milliseconds(),
		"tag_count", len(decoded.Tags))

	if decoded.Tags == nil {
		return map[string]any{}, nil
	}
	return decoded.Tags, nil
}

// fail counts a failure and finishes building the error.
func (c *Client) fail(builder *errors.ErrorBuilder, endpoint string, kind catalog.MediaKind) error {
	c.metrics.mu.Lock()
	c.metrics.failures++
	c.metrics.mu.Unlock()

	err := builder.Context("endpoint", endpoint).Component("detection").Build()
	if m := getServiceMetrics(); m != nil {
		m.RecordRequest(string(kind), "error")
		m.RecordError(string(kind), string(errors.CategoryOf(err)))
	}
	logger.Warn("Detection request failed", "endpoint", endpoint, "error", err)
	return err
}

// Metrics is a point-in-time snapshot of client counters.
type Metrics struct {
	Requests  int64 `json:"requests"`
	Failures  int64 `json:"failures"`
	CacheHits int64 `json:"cache_hits"`
}

// GetMetrics returns current client metrics.
func (c *Client) GetMetrics() Metrics {
	c.metrics.mu.Lock()
	defer c.metrics.mu.Unlock()
	return Metrics{
		Requests:  c.metrics.requests,
		Failures:  c.metrics.failures,
		CacheHits: c.metrics.hits,
	}
}
