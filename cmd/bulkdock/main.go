// Command bulkdock splits large screening inputs into scheduler jobs, tracks
// their progress and merges their outputs.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout, os.Stderr).root().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
