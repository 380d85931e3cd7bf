// Command bladeshared runs the BladeShare backend service: it manages
// shares on one array and exposes the lifecycle API over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/bladeshare/bladeshare/internal/config"
	"github.com/bladeshare/bladeshare/internal/driver"
	"github.com/bladeshare/bladeshare/internal/logger"
	"github.com/bladeshare/bladeshare/internal/metrics"
	"github.com/bladeshare/bladeshare/internal/storage/array"
	"github.com/bladeshare/bladeshare/pkg/api"
	"github.com/bladeshare/bladeshare/pkg/health"
)

var (
	configPath = flag.String("config", "", "path to the YAML configuration file")
	envFile    = flag.String("env-file", ".env", "path to an optional env file with overrides")
)

const shutdownTimeout = 15 * time.Second

func setupSignalHandlers(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		<-sigChan
		cancel()
	}()
}

func run() int {
	flag.Parse()

	// Missing env files are fine; they only carry overrides.
	_ = godotenv.Load(*envFile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		os.Stderr.WriteString("configuration error: " + err.Error() + "\n")
		return 1
	}

	log := logger.New(cfg.Logging)
	log.Info("bladeshared starting",
		"backend", cfg.Backend.Name,
		"management_endpoint", cfg.Backend.ManagementEndpoint,
		"eradicate_on_delete", cfg.Backend.EradicateOnDelete)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandlers(cancel)

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(cfg.Metrics.Namespace)
	}

	client, err := array.NewClient(&array.Config{
		Endpoint:       cfg.Backend.ManagementEndpoint,
		APIToken:       cfg.Backend.APIToken,
		RequestTimeout: cfg.Backend.RequestTimeout,
		VerifyTLS:      cfg.Backend.VerifyTLS,
	}, log)
	if err != nil {
		log.Error("array client setup failed", "error", err)
		return 1
	}
	defer func() {
		logoutCtx, logoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer logoutCancel()
		if err := client.Close(logoutCtx); err != nil {
			log.Warn("array session logout failed", "error", err)
		}
	}()

	d, err := driver.New(cfg, client, log, collector)
	if err != nil {
		log.Error("driver setup failed", "error", err)
		return 1
	}

	tracker := health.NewTracker(health.DefaultConfig())
	tracker.Register("array", d.CheckArray)

	server := api.NewServer(cfg.API, d, tracker, collector, log)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		tracker.Run(ctx)
	}()

	exitCode := 0
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("api server failed", "error", err)
			exitCode = 1
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("api server shutdown failed", "error", err)
		exitCode = 1
	}

	wg.Wait()
	log.Info("bladeshared stopped")
	return exitCode
}

func main() {
	os.Exit(run())
}
