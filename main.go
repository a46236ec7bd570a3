package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"asg/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cli.Run(ctx, os.Exit, os.Args[1:]...)
	if err != nil {
		slog.Error("run failed", slog.Any("error", err))
		stop()
		os.Exit(1)
	}
}
