package conf

import (
	"github.com/spf13/viper"
)

// setDefaultConfig sets the default configuration values.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	// Main
	viper.SetDefault("main.name", "BirdTag")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "logs/birdtag.log")

	// Server
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)

	// Catalog store
	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "birdtag.db")
	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "birdtag")
	viper.SetDefault("output.mysql.password", "")
	viper.SetDefault("output.mysql.database", "birdtag")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")

	// Blob store
	viper.SetDefault("blob.path", "objects")
	viper.SetDefault("blob.publicbaseurl", "http://localhost:8080/objects")

	// Detection service
	viper.SetDefault("detection.baseurl", "http://localhost:8000")
	viper.SetDefault("detection.imagetimeout", 60)
	viper.SetDefault("detection.audiotimeout", 60)
	viper.SetDefault("detection.videotimeout", 300)
	viper.SetDefault("detection.cachettl", 10)
	viper.SetDefault("detection.disablecaching", false)

	// Notifications
	viper.SetDefault("notify.enabled", false)
	viper.SetDefault("notify.urls", []string{})

	// Thumbnails
	viper.SetDefault("thumbnail.maxpixels", 128)
	viper.SetDefault("thumbnail.quality", 85)
}
