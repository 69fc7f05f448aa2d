// Command aira is a terminal client for a streaming chat backend.
//
// Usage:
//
//	aira chat [flags]           interactive chat
//	aira ask [flags] MESSAGE    one turn, prints the rendered markup
//	aira css [flags]            prints the highlighter stylesheet
//
// Flags:
//
//	--config string   Path to config file (default: $XDG_CONFIG_HOME/aira/config.yaml)
//	--url string      Backend base URL (overrides config and AIRA_URL)
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "aira: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Handle OS signals for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return newRootCmd().ExecuteContext(ctx)
}
