// Package main provides the harness API server entry point. It serves
// read-only platform, adapter and test registry state over HTTP and
// reloads the platform configuration when its file changes on disk.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang/glog"

	"github.com/dhavalhparikh/vortex-automotive-framework/pkg/hal"
	"github.com/dhavalhparikh/vortex-automotive-framework/pkg/httpapi"
	"github.com/dhavalhparikh/vortex-automotive-framework/pkg/platform"
	"github.com/dhavalhparikh/vortex-automotive-framework/pkg/testreg"

	// Adapter packages register themselves with the HAL registry.
	_ "github.com/dhavalhparikh/vortex-automotive-framework/pkg/hal/adapters/can"
	_ "github.com/dhavalhparikh/vortex-automotive-framework/pkg/hal/adapters/cli"
	_ "github.com/dhavalhparikh/vortex-automotive-framework/pkg/hal/adapters/gpio"
	_ "github.com/dhavalhparikh/vortex-automotive-framework/pkg/hal/adapters/serial"
	_ "github.com/dhavalhparikh/vortex-automotive-framework/pkg/hal/adapters/spi"
)

func main() {
	var (
		listenAddr   string
		configDir    string
		registryDir  string
		platformName string
		watch        bool
	)

	flag.StringVar(&listenAddr, "listen", ":8080", "Address to listen on")
	flag.StringVar(&configDir, "config-dir", "config/platforms", "Directory containing platform configuration files")
	flag.StringVar(&registryDir, "registry-dir", "config/test_registry", "Directory containing the split test registry")
	flag.StringVar(&platformName, "platform", "", "Platform to load (default: from VORTEX_PLATFORM env)")
	flag.BoolVar(&watch, "watch", true, "Reload the platform configuration when the file changes")
	flag.Parse()

	_ = flag.Set("logtostderr", "true")

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	loader := platform.NewLoader(configDir)
	cfg, err := loader.Load(platformName)
	if err != nil {
		glog.Fatalf("Failed to load platform configuration: %v", err)
	}

	registry := hal.NewRegistry(loader)
	resolver := testreg.NewResolver(registryDir)

	logger.Info("starting harness server",
		"listen", listenAddr,
		"platform", cfg.Platform.Name,
		"mock", loader.IsMockPlatform(),
		"adapters", hal.RegisteredKinds(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	if watch {
		events, err := loader.Watch(ctx)
		if err != nil {
			logger.Error("config watcher unavailable", "error", err)
		} else {
			go func() {
				for ev := range events {
					if ev.Err != nil {
						logger.Error("platform reload failed", "error", ev.Err)
						continue
					}
					logger.Info("platform configuration reloaded", "platform", ev.Platform)
				}
			}()
		}
	}

	server := httpapi.NewServer(loader, registry, resolver)
	httpServer := &http.Server{
		Addr:    listenAddr,
		Handler: server.Router(),
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			glog.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	if err := registry.CleanupAll(); err != nil {
		logger.Error("adapter cleanup error", "error", err)
	}

	logger.Info("harness server stopped")
}
