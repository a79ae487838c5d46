package detection

import (
	"time"

	"github.com/birdtag/birdtag-go/internal/catalog"
	"github.com/birdtag/birdtag-go/internal/conf"
)

// Config holds the detection service client settings.
type Config struct {
	BaseURL      string
	ImageTimeout time.Duration
	AudioTimeout time.Duration
	VideoTimeout time.Duration
	CacheTTL     time.Duration // zero disables the result cache
}

// DefaultConfig returns the client defaults used when settings are missing.
func DefaultConfig() Config {
	return Config{
		BaseURL:      "http://localhost:8000",
		ImageTimeout: 60 * time.Second,
		AudioTimeout: 60 * time.Second,
		VideoTimeout: 300 * time.Second,
		CacheTTL:     10 * time.Minute,
	}
}

// ConfigFromSettings maps application settings onto a client Config.
func ConfigFromSettings(settings *conf.Settings) Config {
	cfg := DefaultConfig()
	if settings.Detection.BaseURL != "" {
		cfg.BaseURL = settings.Detection.BaseURL
	}
	if settings.Detection.ImageTimeout > 0 {
		cfg.ImageTimeout = time.Duration(settings.Detection.ImageTimeout) * time.Second
	}
	if settings.Detection.AudioTimeout > 0 {
		cfg.AudioTimeout = time.Duration(settings.Detection.AudioTimeout) * time.Second
	}
	if settings.Detection.VideoTimeout > 0 {
		cfg.VideoTimeout = time.Duration(settings.Detection.VideoTimeout) * time.Second
	}
	if settings.Detection.DisableCaching {
		cfg.CacheTTL = 0
	} else if settings.Detection.CacheTTL > 0 {
		cfg.CacheTTL = time.Duration(settings.Detection.CacheTTL) * time.Minute
	}
	return cfg
}

// timeoutFor returns the per-kind request timeout.
func (c Config) timeoutFor(kind catalog.MediaKind) time.Duration {
	switch kind {
	case catalog.KindImage:
		return c.ImageTimeout
	case catalog.KindAudio:
		return c.AudioTimeout
	default:
		return c.VideoTimeout
	}
}

// response is the detection service's reply envelope.
type response struct {
	Tags map[string]any `json:"tags"`
}
