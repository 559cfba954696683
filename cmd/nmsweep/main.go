// Command nmsweep finds node_modules directories that have not been touched
// for months and deletes the ones you pick.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"nmsweep/internal/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return cli.Execute(ctx, version)
}
