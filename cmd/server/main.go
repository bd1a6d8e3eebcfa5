package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/doctext/internal/api"
	"github.com/dgallion1/doctext/internal/config"
	"github.com/dgallion1/doctext/internal/extract"
	"github.com/dgallion1/doctext/internal/pathstore"
	"github.com/dgallion1/doctext/internal/pipeline"
	"github.com/dgallion1/doctext/internal/sink"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize sinks.
	sinks := &sink.Factory{
		PathstorePrefix: cfg.PathstorePrefix,
		S3Bucket:        cfg.S3Bucket,
		S3Prefix:        cfg.S3Prefix,
	}
	var ps *pathstore.Client
	if cfg.PathstoreURL != "" {
		ps = pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey)
		sinks.Pathstore = ps
	}
	if cfg.S3Bucket != "" {
		s3c, err := sink.NewS3Client(ctx, cfg.AWSRegion, cfg.AWSAccessKey, cfg.AWSSecretKey)
		if err != nil {
			log.Error("failed to create s3 client", "error", err)
			os.Exit(1)
		}
		sinks.S3 = s3c
	}

	ex := extract.NewExtractor(log, extract.NewStats(cfg.StatsWindow))

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, ex, sinks, ps, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, ex, sinks, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		if ps != nil {
			ps.Close()
		}
	}()

	log.Info("starting doctext",
		"port", cfg.Port,
		"default_scope", cfg.DefaultScope,
		"default_sink", cfg.DefaultSink,
		"workers", cfg.WorkerCount,
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
