// FableCore is a deterministic, module-driven engine for text adventures.
// Usage: fablecore [--plain] [--script <file>] [--trace] [--seed n] [--turn-order sorted|shuffled] <game_directory>
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := playCmd()
	root.Version = fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	root.SetVersionTemplate("fablecore {{.Version}}\n")
	root.AddCommand(validateCmd())
	if err := root.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
