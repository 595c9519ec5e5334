package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/foldwork/foldwork/internal/cmd"

	_ "github.com/foldwork/foldwork/internal/runtime/builtin" // Register built-in executors
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cmd.Root().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
