package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	httpserver "github.com/custodia-labs/sercha-widget/internal/adapters/driving/http"
	"github.com/custodia-labs/sercha-widget/internal/worker"
)

// Run modes for the serve command.
const (
	modeAPI    = "api"
	modeWorker = "worker"
	modeAll    = "all"
)

var serveMode string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the task worker, or both",
	Long: `Run the indexing service.

Modes:
  api     HTTP API only
  worker  background task worker only (requires redis.url)
  all     API and worker in one process

Examples:
  sercha-widget serve --config /etc/sercha-widget/config.yaml
  SERCHA_DATABASE_URL=postgres://... sercha-widget serve --mode worker`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveMode, "mode", envOr("RUN_MODE", modeAll), "run mode: api, worker or all")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	switch serveMode {
	case modeAPI, modeWorker, modeAll:
	default:
		return fmt.Errorf("unknown mode %q (use: api, worker, or all)", serveMode)
	}

	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("sercha-widget starting", "mode", serveMode)

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if serveMode != modeAPI && a.queue == nil {
		return errors.New("worker mode requires redis.url")
	}

	g, gctx := errgroup.WithContext(ctx)

	var w *worker.Worker
	if serveMode != modeAPI {
		w = worker.NewWorker(worker.WorkerConfig{
			TaskQueue:      a.queue,
			Reindex:        a.reindex,
			Teardown:       a.teardown,
			Logger:         logger,
			Concurrency:    cfg.Worker.Concurrency,
			DequeueTimeout: cfg.Worker.DequeueTimeout,
		})
		if err := w.Start(gctx); err != nil {
			return fmt.Errorf("start worker: %w", err)
		}
		g.Go(func() error {
			<-gctx.Done()
			logger.Info("stopping worker")
			w.Stop()
			return nil
		})
	}

	if serveMode != modeWorker {
		checks := a.readinessChecks()
		if w != nil {
			checks = append(checks, httpserver.ReadinessCheck{Name: "worker", Pinger: w})
		}
		server := httpserver.NewServer(httpserver.Config{
			Host:            cfg.Server.Host,
			Port:            cfg.Server.Port,
			Version:         version,
			ReadTimeout:     cfg.Server.ReadTimeout,
			WriteTimeout:    cfg.Server.WriteTimeout,
			ShutdownTimeout: cfg.Server.ShutdownTimeout,
			Logger:          logger,
		}, httpserver.Services{
			Auth:     a.auth,
			Reindex:  a.reindex,
			Teardown: a.teardown,
		}, checks...)

		g.Go(func() error {
			return server.Start(gctx)
		})
	}

	err = g.Wait()
	logger.Info("sercha-widget stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
