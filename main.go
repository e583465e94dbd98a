package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/caqueta-electoral/divipola/cmd"
	"github.com/caqueta-electoral/divipola/internal/output"
	"github.com/caqueta-electoral/divipola/internal/runtime"
)

// Build-time variables, set with -ldflags
var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	rt := runtime.New(version, buildDate)
	defer func() {
		if err := rt.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "error closing: %v\n", err)
		}
	}()

	rootCmd := cmd.RootCommand(rt)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		var exit *output.ExitError
		if errors.As(err, &exit) {
			return exit.Code
		}
		return 1
	}
	return 0
}
