package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mcufs/mcufs/internal/logger"
	"github.com/mcufs/mcufs/internal/protocol/fscmd"
	"github.com/mcufs/mcufs/pkg/config"
	"github.com/mcufs/mcufs/pkg/metrics"
	"github.com/mcufs/mcufs/pkg/server"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: "+config.GetDefaultConfigPath()+")")
	printConfig := flag.Bool("print-config", false, "Print the effective configuration and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *printConfig {
		out, err := config.Dump(cfg)
		if err != nil {
			log.Fatalf("Failed to render configuration: %v", err)
		}
		os.Stdout.Write(out)
		return
	}

	logger.SetLevel(cfg.Logging.Level)

	fmt.Println("mcufsd - filesystem command server for microcontroller clients")
	logger.Info("Log level set to: %s", cfg.Logging.Level)
	logger.Info("Filesystem backend: %s", cfg.Filesystem.Type)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		startMetricsEndpoint(cfg.Metrics.Listen)
	}

	fsys, err := config.CreateFilesystem(ctx, &cfg.Filesystem)
	if err != nil {
		log.Fatalf("Failed to create filesystem backend: %v", err)
	}
	if closer, ok := fsys.(interface{ Close() error }); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				logger.Error("Failed to close filesystem backend: %v", err)
			}
		}()
	}

	srv := server.New(server.Options{
		Listen:        cfg.Server.Listen,
		MaxPacketSize: cfg.Server.MaxPacketSize,
		Handlers: []fscmd.PacketHandler{
			fscmd.NewHandler(fsys, metrics.NewCommandMetrics()),
		},
		Metrics: metrics.NewServerMetrics(),
	})

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Serve(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server is running on %s. Press Ctrl+C to stop.", cfg.Server.Listen)

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, initiating graceful shutdown...")
		cancel()

		select {
		case err := <-serverDone:
			if err != nil {
				logger.Error("Server shutdown error: %v", err)
				os.Exit(1)
			}
			logger.Info("Server stopped gracefully")
		case <-time.After(cfg.Server.ShutdownTimeout):
			logger.Error("Shutdown timed out after %v", cfg.Server.ShutdownTimeout)
			os.Exit(1)
		}

	case err := <-serverDone:
		if err != nil {
			logger.Error("Server error: %v", err)
			os.Exit(1)
		}
		logger.Info("Server stopped")
	}
}

// startMetricsEndpoint serves the Prometheus registry over HTTP.
func startMetricsEndpoint(listen string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	go func() {
		logger.Info("Metrics endpoint listening on %s/metrics", listen)
		if err := http.ListenAndServe(listen, mux); err != nil {
			logger.Error("Metrics endpoint failed: %v", err)
		}
	}()
}
