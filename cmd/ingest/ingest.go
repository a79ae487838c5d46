// Package ingest implements the local-file ingestion command.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/birdtag/birdtag-go/internal/conf"
	"github.com/birdtag/birdtag-go/internal/runtime"
)

// Command returns the ingest subcommand: the upload intake driven from a
// local file path instead of an HTTP request.
func Command(settings *conf.Settings) *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "ingest <file> [file...]",
		Short: "Ingest local media files into the catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), settings, args, owner)
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Owner to record for the ingested files")
	return cmd
}

func run(ctx context.Context, settings *conf.Settings, paths []string, owner string) error {
	core, err := runtime.BuildCore(settings)
	if err != nil {
		return fmt.Errorf("initializing services: %w", err)
	}
	defer func() { _ = core.Close() }()

	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening %s: %w", path, err)
		}

		record, err := core.Intake.Accept(ctx, path, f, owner)
		_ = f.Close()
		if err != nil {
			return fmt.Errorf("ingesting %s: %w", path, err)
		}

		out, err := json.MarshalIndent(record, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	}
	return nil
}
