package main

import (
	"fmt"
	"os"

	"github.com/birdtag/birdtag-go/cmd"
	"github.com/birdtag/birdtag-go/internal/conf"
	"github.com/birdtag/birdtag-go/internal/logging"
	"github.com/birdtag/birdtag-go/internal/runtime"
)

// Injected at build time via -ldflags.
var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	logging.Init()

	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	buildCtx := &runtime.Context{
		Version:   version,
		BuildDate: buildDate,
	}

	if err := cmd.RootCommand(settings, buildCtx).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
