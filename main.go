package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.miragespace.co/idcontains/cmd/idcontains"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := idcontains.App.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
