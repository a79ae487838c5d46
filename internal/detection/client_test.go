package detection

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/birdtag/birdtag-go/internal/catalog"
	"github.com/birdtag/birdtag-go/internal/errors"
)

const testBaseURL = "http://detector.local"

func testClient(t *testing.T, cacheTTL time.Duration) *Client {
	t.Helper()

	cfg := DefaultConfig()
	cfg.BaseURL = testBaseURL
	cfg.CacheTTL = cacheTTL

	client, err := NewClient(cfg)
	require.NoError(t, err)

	httpmock.ActivateNonDefault(client.httpClient)
	t.Cleanup(httpmock.DeactivateAndReset)
	return client
}

func TestClient_DetectImage(t *testing.T) {
	client := testClient(t, 0)

	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/predict/image",
		func(req *http.Request) (*http.Response, error) {
			require.NoError(t, req.ParseMultipartForm(1<<20))
			_, header, err := req.FormFile("image_file")
			require.NoError(t, err)
			assert.Equal(t, "img1.jpg", header.Filename)
			return httpmock.NewStringResponse(http.StatusOK, `{"tags": {"crow": 2, "sparrow": 1}}`), nil
		})

	tags, err := client.Detect(context.Background(), "images/original/img1.jpg",
		catalog.KindImage, strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"crow": 2.0, "sparrow": 1.0}, tags)
}

func TestClient_DetectVideoUsesVideoField(t *testing.T) {
	client := testClient(t, 0)

	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/predict/video",
		func(req *http.Request) (*http.Response, error) {
			require.NoError(t, req.ParseMultipartForm(1<<20))
			_, _, err := req.FormFile("video_file")
			require.NoError(t, err)
			return httpmock.NewStringResponse(http.StatusOK, `{"tags": {}}`), nil
		})

	tags, err := client.Detect(context.Background(), "videos/original/clip.mp4",
		catalog.KindVideo, strings.NewReader("mp4-bytes"))
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestClient_DetectImageURL(t *testing.T) {
	client := testClient(t, 0)

	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/predict/image",
		func(req *http.Request) (*http.Response, error) {
			require.NoError(t, req.ParseForm())
			assert.Equal(t, "https://example.com/bird.jpg", req.PostFormValue("image_url"))
			return httpmock.NewStringResponse(http.StatusOK, `{"tags": {"owl": 1}}`), nil
		})

	tags, err := client.DetectImageURL(context.Background(), "https://example.com/bird.jpg")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"owl": 1.0}, tags)
}

func TestClient_ServerError(t *testing.T) {
	client := testClient(t, 0)

	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/predict/image",
		httpmock.NewStringResponder(http.StatusInternalServerError, "boom"))

	_, err := client.Detect(context.Background(), "images/original/img1.jpg",
		catalog.KindImage, strings.NewReader("x"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryDetection))
	assert.EqualValues(t, 1, client.GetMetrics().Failures)
}

func TestClient_MalformedResponse(t *testing.T) {
	client := testClient(t, 0)

	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/predict/image",
		httpmock.NewStringResponder(http.StatusOK, "not json"))

	_, err := client.Detect(context.Background(), "images/original/img1.jpg",
		catalog.KindImage, strings.NewReader("x"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileParsing))
}

func TestClient_CachesByObjectKey(t *testing.T) {
	client := testClient(t, time.Minute)

	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/predict/image",
		httpmock.NewStringResponder(http.StatusOK, `{"tags": {"crow": 1}}`))

	for range 3 {
		tags, err := client.Detect(context.Background(), "images/original/img1.jpg",
			catalog.KindImage, strings.NewReader("x"))
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"crow": 1.0}, tags)
	}

	assert.Equal(t, 1, httpmock.GetTotalCallCount())
	assert.EqualValues(t, 2, client.GetMetrics().CacheHits)
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Config{})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}
