// Package cmd wires the CLI: the root command and its subcommands.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/birdtag/birdtag-go/cmd/ingest"
	"github.com/birdtag/birdtag-go/cmd/serve"
	"github.com/birdtag/birdtag-go/internal/conf"
	"github.com/birdtag/birdtag-go/internal/runtime"
)

// RootCommand creates and returns the root command.
func RootCommand(settings *conf.Settings, buildCtx *runtime.Context) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "birdtag",
		Short:   "BirdTag media tag catalog",
		Version: buildCtx.Version,
	}

	setupFlags(rootCmd, settings)

	rootCmd.AddCommand(
		serve.Command(settings, buildCtx),
		ingest.Command(settings),
	)

	return rootCmd
}

// setupFlags defines global flags and binds them to viper so command-line
// arguments take precedence over the config file.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) {
	cmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", settings.Debug, "Enable debug output")
	cmd.PersistentFlags().StringVar(&settings.Blob.Path, "blob-path", settings.Blob.Path, "Root directory for stored media objects")
	cmd.PersistentFlags().StringVar(&settings.Detection.BaseURL, "detection-url", settings.Detection.BaseURL, "Base URL of the detection service")

	_ = viper.BindPFlag("debug", cmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("blob.path", cmd.PersistentFlags().Lookup("blob-path"))
	_ = viper.BindPFlag("detection.baseurl", cmd.PersistentFlags().Lookup("detection-url"))
}
