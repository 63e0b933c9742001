package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"covideda/internal/cli"
)

// main runs the covideda command tree. Interrupts cancel the running load or
// report; cobra has already printed the error when Execute fails.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
