package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	"fintrack/internal/core"
	apphttp "fintrack/internal/http"
	"fintrack/internal/localstore"
	applog "fintrack/internal/log"
	"fintrack/internal/metrics"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, result, err := cli.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize store", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer cli.CloseStore(st, result, logger)
	logger.Info("Records loaded", "owner", cfg.OwnerID, "backend", cfg.DataBackend)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:              ":" + cfg.Port,
		RequestTimeout:    cfg.RequestTimeout,
		RequestsPerMinute: cfg.RequestsPerMinute,
		DashboardCacheTTL: cfg.DashboardCacheTTL,
	}, st, metrics.NewAggregator(st))

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	// Bridge local changes to other processes when a broker is configured.
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer client.Close()

		bridge := amqp.NewBridge(client, st.Bus(), st.Reload)
		g.Go(func() error {
			err := bridge.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
		logger.Info("Change bridge started", "exchange", cfg.AMQPExchange, "origin", bridge.Origin())
	}

	// With the file backend, pick up records rewritten by another process
	// (such as the worker's snapshot loop) without a broker in between.
	if result.Files != nil {
		files := result.Files
		prefix := cfg.OwnerID + "."
		g.Go(func() error {
			err := files.Watch(ctx, 2*time.Second, func(key string) {
				kind, ok := strings.CutPrefix(key, prefix)
				if !ok || !core.EntityKind(kind).IsValid() {
					return
				}
				if err := st.Reload(ctx, core.EntityKind(kind)); err != nil {
					logger.Error("Reload after file change failed", "kind", kind, "error", err)
				}
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	// Remote backends get a local snapshot mirror for offline starts.
	if cfg.DataBackend != "file" {
		files, err := localstore.Open(cfg.DataDirectory)
		if err != nil {
			logger.Error("Failed to open snapshot directory", "error", err, "dir", cfg.DataDirectory)
			os.Exit(1)
		}
		w := worker.New(st, localstore.NewRecordStore(files))
		g.Go(func() error {
			ticker := time.NewTicker(cfg.SnapshotInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					if err := w.SnapshotAll(ctx); err != nil {
						logger.Error("Snapshot maintenance failed", "error", err)
					}
				}
			}
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
