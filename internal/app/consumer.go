package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"callsync/internal/messaging/kafka/consumer"
	"callsync/internal/notification"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func newReader(broker, topic, group string) *kafkago.Reader {
	return kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{broker},
		Topic:          topic,
		GroupID:        group,
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
}

// RunConsumer delivers welcome messages for new employees and every queued
// notification until SIGINT/SIGTERM. Delivery here is direct (SMTP, then the
// log), never back onto Kafka.
func RunConsumer(infra *Infra) error {
	logger := infra.Logger.Named("app.consumer")
	cfg := infra.Config.Kafka

	if cfg.Broker == "" {
		return errors.New("kafka broker is required for the consumer")
	}

	direct := notification.Chain(
		notification.NewSMTPNotifier(infra.Config.Notification),
		notification.NewLogNotifier(infra.Logger),
	)

	lifecycle := newReader(cfg.Broker, cfg.EmployeeLifecycleTopic, cfg.LifecycleConsumerGroup)
	defer lifecycle.Close()

	requests := newReader(cfg.Broker, cfg.NotificationTopic, cfg.NotificationConsumerGrp)
	defer requests.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		consumer.ConsumeEmployeeLifecycle(ctx, lifecycle, direct, logger)
		return nil
	})
	g.Go(func() error {
		consumer.ConsumeNotificationRequests(ctx, requests, direct, logger)
		return nil
	})

	err := g.Wait()
	logger.Info("consumer shutting down", zap.Error(err))
	return err
}
