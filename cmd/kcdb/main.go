// Package main provides the kcdb command-line client.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kcdb-client/internal/cli"
	"github.com/kcdb-client/internal/config"
	"github.com/kcdb-client/internal/logging"
	"github.com/kcdb-client/pkg/kcdb"
)

func main() {
	os.Exit(run())
}

func run() int {
	var opts []config.Option
	if file := os.Getenv("KCDB_CONFIG_FILE"); file != "" {
		opts = append(opts, config.WithConfigFile(file))
	}
	manager, err := config.NewManager(opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kcdb: %v\n", err)
		return 1
	}
	if err := manager.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "kcdb: configuration validation failed: %v\n", err)
		return 1
	}

	logger, err := logging.New(manager.GetConfig().Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kcdb: %v\n", err)
		return 1
	}
	clientConfig := manager.ClientConfig()
	clientConfig.Logger = logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := cli.New(kcdb.NewClient(clientConfig), os.Stdout, os.Stderr)
	switch err := c.Run(ctx, os.Args[1:]); {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, cli.ErrUsage):
		fmt.Fprintf(os.Stderr, "kcdb: %v\n", err)
		return 2
	default:
		fmt.Fprintf(os.Stderr, "kcdb: %v\n", err)
		return 1
	}
}
