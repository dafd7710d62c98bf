package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	kafka "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/jredh-dev/lostfound/pkg/logger"
)

// maxRetries is the number of delivery attempts before an event is routed
// to the dead-letter topic.
const maxRetries = 3

// DLQSuffix is appended to the events topic to name its dead-letter topic.
const DLQSuffix = "-dlq"

// ErrDeadLetter is returned by Run when an event could be neither delivered
// nor written to the dead-letter topic. Its offset is left uncommitted.
var ErrDeadLetter = errors.New("dead-letter write failed")

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events to a Kafka topic keyed by claim id, so all
// events for one claim land on the same partition in order.
type KafkaPublisher struct {
	writer messageWriter
	now    func() time.Time
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
		now: time.Now,
	}
}

// Publish fills in the event id and time when unset and writes the event.
func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = p.now().UTC()
	}
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(e.ClaimID), Value: body}); err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Consumer reads events from the topic and hands them to a Sender. Offsets
// are committed only after an event is delivered or dead-lettered, giving
// at-least-once delivery.
type Consumer struct {
	reader  messageReader
	dlq     messageWriter
	sender  Sender
	log     *zap.Logger
	backoff func(attempt int) time.Duration
}

func NewConsumer(brokers []string, topic, groupID string, sender Sender, log *zap.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       1 << 20,
		CommitInterval: 0, // explicit commits only
		StartOffset:    kafka.LastOffset,
	})
	dlq := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic + DLQSuffix,
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return newConsumer(reader, dlq, sender, log)
}

func newConsumer(reader messageReader, dlq messageWriter, sender Sender, log *zap.Logger) *Consumer {
	return &Consumer{
		reader: reader,
		dlq:    dlq,
		sender: sender,
		log:    logger.OrNop(log).With(zap.String("component", "notifier")),
		backoff: func(attempt int) time.Duration {
			return time.Duration(attempt) * 2 * time.Second
		},
	}
}

// Run consumes events until ctx is cancelled. It stops with ErrDeadLetter
// rather than commit past an event that was not delivered or dead-lettered,
// so the event is fetched again when the consumer restarts.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("fetch: %w", err)
		}

		if err := c.dispatch(ctx, m); err != nil {
			if errors.Is(err, ErrDeadLetter) {
				return fmt.Errorf("offset %d: %w", m.Offset, err)
			}
			if ctx.Err() != nil {
				return nil
			}
			c.log.Warn("event routed to dead-letter topic", zap.ByteString("key", m.Key), zap.Error(err))
		}
		if err := c.reader.CommitMessages(ctx, m); err != nil {
			c.log.Error("commit failed, event may be redelivered", zap.Error(err))
		}
	}
}

func (c *Consumer) Close() error {
	rerr := c.reader.Close()
	werr := c.dlq.Close()
	if rerr != nil {
		return rerr
	}
	return werr
}

// dispatch delivers m with retries. An event that cannot be decoded or
// delivered is written to the dead-letter topic and the cause returned;
// if that write fails too the error wraps ErrDeadLetter.
func (c *Consumer) dispatch(ctx context.Context, m kafka.Message) error {
	var e Event
	if err := json.Unmarshal(m.Value, &e); err != nil {
		return c.sendToDLQ(ctx, m, fmt.Errorf("unmarshal: %w", err))
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		lastErr = c.sender.Send(ctx, e)
		if lastErr == nil {
			c.log.Info("event delivered",
				zap.String("event_id", e.ID),
				zap.String("type", string(e.Type)),
				zap.String("claim_id", e.ClaimID),
				zap.Int("attempt", attempt))
			return nil
		}
		c.log.Warn("event delivery failed",
			zap.String("event_id", e.ID),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxRetries),
			zap.Error(lastErr))

		if attempt < maxRetries {
			select {
			case <-time.After(c.backoff(attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return c.sendToDLQ(ctx, m, lastErr)
}

func (c *Consumer) sendToDLQ(ctx context.Context, original kafka.Message, reason error) error {
	if err := c.dlq.WriteMessages(ctx, kafka.Message{Key: original.Key, Value: original.Value}); err != nil {
		c.log.Error("could not write to dead-letter topic", zap.Error(err), zap.NamedError("reason", reason))
		return fmt.Errorf("%w: %v", ErrDeadLetter, err)
	}
	return reason
}
