// Command scriptext runs scripts against the bundled extensions.
//
// Usage:
//
//	scriptext run script.js [--watch]
//	scriptext repl
//	scriptext modules
//	scriptext wasm guest.wasm --func run [--arg 1 --arg 2]
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// shutdownSignals cancel the command context.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals...)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
