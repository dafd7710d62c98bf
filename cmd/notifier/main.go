// Command notifier consumes claim events from Kafka and delivers them.
//
// It reads the same environment as the API server:
//
//	KAFKA_BROKERS       comma-separated broker list, e.g. "kafka:9092"
//	NOTIFY_TOPIC        claim events topic (default "lostfound-claim-events")
//	NOTIFY_WEBHOOK_URL  endpoint that receives each event as JSON; when empty
//	                    events are only logged
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/jredh-dev/lostfound/config"
	"github.com/jredh-dev/lostfound/internal/notify"
	"github.com/jredh-dev/lostfound/pkg/logger"
)

const groupID = "lostfound-notifier"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if len(cfg.Notify.Brokers) == 0 {
		log.Fatal("KAFKA_BROKERS is not set")
	}

	var sender notify.Sender = notify.NewLogSender(log)
	if cfg.Notify.WebhookURL != "" {
		sender = notify.NewWebhookSender(cfg.Notify.WebhookURL)
	}

	consumer := notify.NewConsumer(cfg.Notify.Brokers, cfg.Notify.Topic, groupID, sender, log)
	defer func() {
		if err := consumer.Close(); err != nil {
			log.Warn("error closing consumer", zap.Error(err))
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("notifier starting",
		zap.Strings("brokers", cfg.Notify.Brokers),
		zap.String("topic", cfg.Notify.Topic),
		zap.Bool("webhook", cfg.Notify.WebhookURL != ""))
	if err := consumer.Run(ctx); err != nil {
		log.Fatal("consumer stopped", zap.Error(err))
	}
	log.Info("shutdown complete")
}
