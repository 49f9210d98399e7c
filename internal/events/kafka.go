package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaConfig configures the Kafka event sink.
type KafkaConfig struct {
	Brokers           []string
	Topic             string
	Partitions        int32
	ReplicationFactor int16
	ProduceTimeout    time.Duration
}

// KafkaSink forwards events to a Kafka topic, keyed by Event.Key so a farmer's events stay
// ordered within a partition.
type KafkaSink struct {
	client *kgo.Client
	cfg    KafkaConfig
	logger *slog.Logger
}

// NewKafkaSink creates a producer for cfg.Topic.
func NewKafkaSink(cfg KafkaConfig, logger *slog.Logger) (*KafkaSink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka sink: no brokers configured")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka sink: no topic configured")
	}
	if cfg.ProduceTimeout <= 0 {
		cfg.ProduceTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerLinger(5*time.Millisecond),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	return &KafkaSink{client: client, cfg: cfg, logger: logger}, nil
}

// EnsureTopic creates the topic if it does not exist.
func (s *KafkaSink) EnsureTopic(ctx context.Context) error {
	partitions := s.cfg.Partitions
	if partitions <= 0 {
		partitions = 1
	}
	replication := s.cfg.ReplicationFactor
	if replication <= 0 {
		replication = 1
	}

	adm := kadm.NewClient(s.client)
	resp, err := adm.CreateTopics(ctx, partitions, replication, nil, s.cfg.Topic)
	if err != nil {
		return fmt.Errorf("failed to create topic %s: %w", s.cfg.Topic, err)
	}
	for _, r := range resp {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("failed to create topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}

// Handle produces one event synchronously. It is meant to be subscribed to a Manager,
// which already runs it off the request path.
func (s *KafkaSink) Handle(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ProduceTimeout)
	defer cancel()

	record := &kgo.Record{
		Key:   []byte(event.Key),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "event-type", Value: []byte(event.Type)},
		},
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("failed to produce %s: %w", event.Type, err)
	}
	s.logger.Debug("event produced", "type", string(event.Type), "topic", s.cfg.Topic)
	return nil
}

// Close flushes buffered records and closes the client.
func (s *KafkaSink) Close(ctx context.Context) error {
	err := s.client.Flush(ctx)
	s.client.Close()
	return err
}
