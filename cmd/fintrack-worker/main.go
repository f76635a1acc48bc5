package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	"fintrack/internal/localstore"
	applog "fintrack/internal/log"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)

	logger.Info("Starting fintrack-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, result, err := cli.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize store", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer cli.CloseStore(st, result, logger)

	// The worker keeps its own snapshot mirror unless the file backend is
	// already the source of truth.
	var snapshots *localstore.RecordStore
	if cfg.DataBackend != "file" {
		files, err := localstore.Open(cfg.DataDirectory)
		if err != nil {
			logger.Error("Failed to open snapshot directory", "error", err, "dir", cfg.DataDirectory)
			os.Exit(1)
		}
		snapshots = localstore.NewRecordStore(files)
	}
	w := worker.New(st, snapshots)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := w.Run(ctx, cfg.ReconcileInterval, cfg.SnapshotInterval)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

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
		logger.Info("Consuming change events", "exchange", cfg.AMQPExchange, "origin", bridge.Origin())
	} else {
		logger.Info("AMQP disabled, running on periodic reconcile only")
	}

	if err := g.Wait(); err != nil {
		logger.Error("Worker error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
