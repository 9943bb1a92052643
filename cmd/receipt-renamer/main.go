package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand(os.Stdin, os.Stdout, os.Stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errFilesFailed) && !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}
