package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/petems/memo-tray/internal/audio"
	"github.com/petems/memo-tray/internal/config"
	"github.com/petems/memo-tray/internal/library"
	"github.com/petems/memo-tray/internal/logging"
	"github.com/petems/memo-tray/internal/metrics"
	"github.com/petems/memo-tray/internal/permissions"
	"github.com/petems/memo-tray/internal/recorder"
	"github.com/petems/memo-tray/internal/storage"
	"github.com/petems/memo-tray/internal/tray"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	// Version is set via ldflags at build time
	Version = "dev"
	// Commit is set via ldflags at build time
	Commit = "unknown"
)

func main() {
	// Load config from XDG/Library/AppData
	cfg, err := config.Load()
	if err != nil {
		// Use default logger if config fails to load
		log := logging.New(config.Default().Logging)
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	log := logging.New(cfg.Logging)

	// macOS requires explicit microphone approval before capture works
	if err := permissions.EnsureMicrophone(); err != nil {
		log.Fatal().Err(err).Msg("Required permissions not granted")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	if cfg.Metrics.Address != "" {
		srv := serveMetrics(cfg.Metrics.Address, reg, log)
		defer srv.Close()
	}

	// Initialize audio capture
	device, err := audio.New(cfg.Audio)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize audio")
	}
	defer device.Close()

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open recording storage")
	}
	if c, ok := store.(io.Closer); ok {
		defer c.Close()
	}

	lib, err := library.New(store, cfg.Library.CacheSize, log, m)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize library")
	}

	// Create tray UI first (we'll pass it to the recorder)
	trayUI := tray.New(nil, lib, cfg, log, Version, Commit) // Recorder reference set below

	rec := recorder.New(recorder.Config{
		Device:        device,
		Sink:          store,
		Audio:         cfg.Audio,
		Logger:        log,
		Metrics:       m,
		StatusUpdater: trayUI,
	})

	trayUI.SetRecorder(rec)

	log.Info().Str("version", Version).Str("storage", cfg.Storage.Backend).Msg("MemoTray starting...")

	// Setup shutdown signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Shutting down...")
		if err := rec.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Shutdown error")
		}
		os.Exit(0)
	}()

	// Start tray UI - MUST run on main thread
	if err := trayUI.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Tray error")
	}
}

func serveMetrics(addr string, reg *prometheus.Registry, log zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", addr).Msg("Serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Metrics server failed")
		}
	}()
	return srv
}
