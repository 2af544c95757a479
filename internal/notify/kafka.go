package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"complaintdesk/internal/platform/config"
	"complaintdesk/pkg/platform/circuit"
	"complaintdesk/pkg/requestcontext"
)

const closeTimeout = 5 * time.Second

// ErrCircuitOpen is returned while publishing is paused after repeated failures.
var ErrCircuitOpen = errors.New("notification circuit open")

// Producer is the subset of *kgo.Client used to publish.
type Producer interface {
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
}

// KafkaNotifier publishes each notification as one JSON record.
type KafkaNotifier struct {
	producer Producer
	client   *kgo.Client
	topic    string
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

// NewKafka connects a producer to cfg.Brokers.
func NewKafka(cfg config.KafkaConfig, logger *slog.Logger) (*KafkaNotifier, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	n := newKafka(client, cfg, logger)
	n.client = client
	return n, nil
}

func newKafka(producer Producer, cfg config.KafkaConfig, logger *slog.Logger) *KafkaNotifier {
	return &KafkaNotifier{
		producer: producer,
		topic:    cfg.Topic,
		breaker: circuit.New("notify-kafka",
			circuit.WithFailureThreshold(cfg.BreakerThreshold),
			circuit.WithCooldown(cfg.BreakerCooldown),
		),
		logger: logger,
	}
}

// EnsureTopic creates the notification topic, tolerating one that already exists.
func (n *KafkaNotifier) EnsureTopic(ctx context.Context, partitions int32, replicationFactor int16) error {
	if n.client == nil {
		return nil
	}
	resp, err := kadm.NewClient(n.client).CreateTopics(ctx, partitions, replicationFactor, nil, n.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", n.topic, err)
	}
	for _, r := range resp {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}

// Notify buffers text for publishing and returns without waiting for the
// broker. Delivery failures are logged and counted by the breaker.
func (n *KafkaNotifier) Notify(ctx context.Context, text string) error {
	if !n.breaker.Allow() {
		return ErrCircuitOpen
	}

	msg := Message{
		ID:        uuid.NewString(),
		Text:      text,
		RequestID: requestcontext.RequestID(ctx),
		CreatedAt: requestcontext.Now(ctx),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	record := &kgo.Record{Topic: n.topic, Key: []byte(msg.ID), Value: payload}
	// the request context ends with the response; the record must outlive it
	ctx = context.WithoutCancel(ctx)
	n.producer.Produce(ctx, record, func(r *kgo.Record, err error) {
		if err == nil {
			n.breaker.RecordSuccess()
			return
		}
		n.logger.ErrorContext(ctx, "failed to publish notification",
			"topic", r.Topic,
			"notification_id", msg.ID,
			"request_id", msg.RequestID,
			"error", err,
		)
		if n.breaker.RecordFailure() {
			n.logger.WarnContext(ctx, "notification circuit opened", "topic", n.topic)
		}
	})
	return nil
}

// Close flushes buffered notifications, waiting at most closeTimeout, and
// closes the underlying client.
func (n *KafkaNotifier) Close() {
	if n.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := n.client.Flush(ctx); err != nil {
		n.logger.Warn("notifications left unflushed", "topic", n.topic, "error", err)
	}
	n.client.Close()
}
