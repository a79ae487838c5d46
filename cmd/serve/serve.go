// Package serve implements the HTTP server command.
package serve

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	"github.com/birdtag/birdtag-go/internal/api"
	"github.com/birdtag/birdtag-go/internal/conf"
	"github.com/birdtag/birdtag-go/internal/runtime"
)

// Command returns the serve subcommand.
func Command(settings *conf.Settings, buildCtx *runtime.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the catalog HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(settings, buildCtx)
		},
	}

	cmd.Flags().StringVar(&settings.Server.Host, "host", settings.Server.Host, "Listen address")
	cmd.Flags().IntVar(&settings.Server.Port, "port", settings.Server.Port, "Listen port")
	return cmd
}

func run(settings *conf.Settings, buildCtx *runtime.Context) error {
	core, err := runtime.BuildCore(settings)
	if err != nil {
		return fmt.Errorf("initializing services: %w", err)
	}
	defer func() { _ = core.Close() }()

	e := echo.New()
	e.HideBanner = true

	controller := api.New(e, settings, core.Query, core.Mutate, core.Intake,
		core.Metrics, log.Default(), buildCtx.Version)
	defer controller.Shutdown()

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	errChan := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		log.Printf("Received signal %v, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
