// Shopfront - command line storefront client for the commerce backend.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"shopfront/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
