// Package main provides the entry point for the KCDB MCP Server.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/kcdb-client/internal/config"
	"github.com/kcdb-client/internal/logging"
	"github.com/kcdb-client/internal/mcp"
	"github.com/kcdb-client/internal/setup"
	"github.com/kcdb-client/pkg/kcdb"
)

func main() {
	// Check for setup subcommand
	if len(os.Args) > 1 && os.Args[1] == "setup" {
		cli := setup.NewCLI(os.Stdout, "")
		if err := cli.Run(os.Args[2:]); err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		return
	}

	var opts []config.Option
	if file := os.Getenv(setup.ConfigFileEnv); file != "" {
		opts = append(opts, config.WithConfigFile(file))
	}
	manager, err := config.NewManager(opts...)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := manager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}
	cfg := manager.GetConfig()

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clientConfig := manager.ClientConfig()
	clientConfig.Logger = logger
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		clientConfig.Metrics = kcdb.NewMetrics(reg)
		go serveMetrics(ctx, cfg.Metrics.Address, reg, logger)
	}

	server := mcp.NewServer(kcdb.NewClient(clientConfig), cfg.MCP, mcp.WithLogger(logger))
	if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Fatal("MCP server failed")
	}
	logger.Info("KCDB MCP Server stopped")
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, logger *logrus.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.WithField("address", addr).Info("Serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Error("Metrics server failed")
	}
}
