package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"callsync/internal/messaging/kafka"
	"callsync/internal/messaging/kafka/producer"
	"callsync/internal/recording"
	"callsync/internal/shared/audit"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const purgeSweepBatch = 100

// RunWorker relays the outbox to Kafka and finishes half-done recording
// purges until SIGINT/SIGTERM.
func RunWorker(infra *Infra, auditLogger audit.Logger) error {
	logger := infra.Logger.Named("app.worker")
	cfg := infra.Config

	guard, err := newGuard()
	if err != nil {
		return err
	}
	recordings, err := newRecordingService(infra, guard, auditLogger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	if infra.Kafka != nil {
		outboxRepo := kafka.NewOutboxRepository(infra.SQLDB)
		g.Go(func() error {
			producer.ProcessOutboxEvents(ctx, outboxRepo, infra.Kafka, logger, cfg.Kafka.OutboxPollInterval)
			return nil
		})
	} else {
		logger.Warn("kafka not configured, outbox relay disabled")
	}

	g.Go(func() error {
		SweepPurges(ctx, recordings, cfg.Storage.PurgeSweepInterval, logger)
		return nil
	})

	err = g.Wait()
	logger.Info("worker shutting down")
	return err
}

// SweepPurges runs recording.Service.SweepPurges on every tick until ctx is done.
func SweepPurges(ctx context.Context, recordings recording.Service, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		interval = time.Minute
	}

	log := logger.Named("purge_sweeper")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info("purge sweeper started", zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			log.Info("purge sweeper stopped")
			return
		case <-ticker.C:
			if _, err := recordings.SweepPurges(ctx, purgeSweepBatch); err != nil {
				log.Error("sweep purges failed", zap.Error(err))
			}
		}
	}
}
