// wstalk - an interactive terminal client for secure WebSocket servers.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"wstalk/cmd"
)

func main() {
	// SIGINT is application-level here: it opens the compose prompt
	// instead of killing the process, so only SIGTERM cancels us.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer cancel()

	// Once the first SIGTERM has cancelled the context, unregister the
	// handler so a second SIGTERM falls through to the default action
	// and kills the process even if a session is still draining.
	go func() {
		<-ctx.Done()
		cancel()
	}()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "wstalk: %v\n", err)
		os.Exit(1)
	}
}
