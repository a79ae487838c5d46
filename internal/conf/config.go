// Package conf handles the application configuration: defaults, the YAML
// config file, environment overrides, and the settings struct injected into
// every component.
package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Settings is the root configuration structure.
type Settings struct {
	Debug bool `yaml:"debug"` // true to enable debug logging

	Main struct {
		Name string    `yaml:"name"` // node name used in logs and notifications
		Log  LogConfig `yaml:"log"`
	} `yaml:"main"`

	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`

	Output struct {
		SQLite SQLiteConfig `yaml:"sqlite"`
		MySQL  MySQLConfig  `yaml:"mysql"`
	} `yaml:"output"`

	Blob      BlobConfig      `yaml:"blob"`
	Detection DetectionConfig `yaml:"detection"`
	Notify    NotifyConfig    `yaml:"notify"`
	Thumbnail ThumbnailConfig `yaml:"thumbnail"`
}

// LogConfig holds file-logging settings.
type LogConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// SQLiteConfig holds SQLite catalog store settings.
type SQLiteConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// MySQLConfig holds MySQL catalog store settings.
type MySQLConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
}

// BlobConfig holds local blob store settings.
type BlobConfig struct {
	Path          string `yaml:"path"`          // root directory for stored objects
	PublicBaseURL string `yaml:"publicbaseurl"` // base URL under which objects are served
}

// DetectionConfig holds the external detection service settings.
type DetectionConfig struct {
	BaseURL        string `yaml:"baseurl"`
	ImageTimeout   int    `yaml:"imagetimeout"`   // seconds
	AudioTimeout   int    `yaml:"audiotimeout"`   // seconds
	VideoTimeout   int    `yaml:"videotimeout"`   // seconds
	CacheTTL       int    `yaml:"cachettl"`       // minutes, 0 disables the result cache
	DisableCaching bool   `yaml:"disablecaching"` // force every ingest to hit the service
}

// NotifyConfig holds novel-species notification settings.
type NotifyConfig struct {
	Enabled bool     `yaml:"enabled"`
	URLs    []string `yaml:"urls"` // shoutrrr service URLs
}

// ThumbnailConfig holds thumbnail generation settings.
type ThumbnailConfig struct {
	MaxPixels int `yaml:"maxpixels"` // bounding box edge in pixels
	Quality   int `yaml:"quality"`   // JPEG quality 1-100
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into a new
// Settings instance.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// GetSettings returns the current settings instance, nil before Load.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("birdtag")
	viper.AutomaticEnv()

	viper.AddConfigPath(".")
	if configDir, err := os.UserConfigDir(); err == nil {
		viper.AddConfigPath(filepath.Join(configDir, "birdtag"))
	}

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Config file not found, run with defaults and write one
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}
	return nil
}

// createDefaultConfig writes the current (default) configuration to
// ./config.yaml so the node has an editable file on first run.
func createDefaultConfig() error {
	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return fmt.Errorf("error unmarshaling defaults: %w", err)
	}

	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling default config: %w", err)
	}

	if err := os.WriteFile("config.yaml", out, 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}
	return nil
}

// ValidateSettings checks settings for values that cannot work at runtime.
func ValidateSettings(settings *Settings) error {
	if settings.Output.SQLite.Enabled && settings.Output.MySQL.Enabled {
		return fmt.Errorf("only one catalog store backend may be enabled")
	}
	if settings.Blob.Path == "" {
		return fmt.Errorf("blob.path must not be empty")
	}
	if settings.Thumbnail.MaxPixels <= 0 {
		return fmt.Errorf("thumbnail.maxpixels must be positive")
	}
	if settings.Thumbnail.Quality < 1 || settings.Thumbnail.Quality > 100 {
		return fmt.Errorf("thumbnail.quality must be between 1 and 100")
	}
	return nil
}
