package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/redactqc/redactqc/internal/batchmanager"
	"github.com/redactqc/redactqc/internal/config"
	"github.com/redactqc/redactqc/internal/ids"
	"github.com/redactqc/redactqc/internal/middleware"
	"github.com/redactqc/redactqc/internal/queryapi"
	"github.com/redactqc/redactqc/internal/reports"
	"github.com/redactqc/redactqc/internal/router"
	"github.com/redactqc/redactqc/internal/store"
	"github.com/redactqc/redactqc/internal/workerpool"
)

const Version = "0.1.0"

func run() error {
	workerMode := flag.Bool("worker-mode", false, "run as a WorkerPool subprocess instead of the HTTP server")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if *workerMode {
		workerpool.Serve(cfg)
		return nil
	}

	st, err := store.Open(cfg.DBPath(), store.WithLockWait(time.Duration(cfg.StoreLockWaitSeconds)*time.Second))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	bm := batchmanager.New(st, cfg)
	api := queryapi.New(st)
	gen := reports.NewCSVGenerator(api, cfg.DataDir, func() string { return ids.New().String() })

	reg := prometheus.NewRegistry()
	metrics := middleware.NewMetrics(reg)

	deps := &router.Dependencies{
		DB:                st,
		Version:           Version,
		Metrics:           metrics,
		MetricsReg:        reg,
		BatchManager:      bm,
		QueryAPI:          api,
		Reports:           gen,
		DataDir:           cfg.DataDir,
		DefaultConfidence: cfg.MinConfidence,
		DefaultWorkers:    cfg.WorkerCount,
	}

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router.New(deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("redactqc starting", "version", Version, "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("received signal, shutting down gracefully", "signal", sig.String())
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("redactqc stopped")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
