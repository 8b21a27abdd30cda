package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"doit/internal/cli"
	"doit/internal/errors"
)

func main() {
	defer errors.Recover(func(cause error) {
		fmt.Fprintln(os.Stderr, errors.ErrorWithStackTrace(cause))
		os.Exit(cli.ExitError)
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
