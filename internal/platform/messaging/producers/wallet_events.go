// Package producers publishes wallet events (settled deposits, completed
// transfers) to Kafka for downstream consumers such as notification and
// reporting services. Publishing is fan-out only: the ledger is the source
// of truth and nothing here feeds back into balances.
package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/custodia-wallet-engine/internal/config"
	"github.com/segmentio/kafka-go"
)

// WalletEventProducer publishes wallet events to the configured topic
type WalletEventProducer struct {
	logger *slog.Logger
	writer KafkaWriter // Interface for testability
	topic  string
}

// NewWalletEventProducer creates the producer and ensures the topic exists.
// Returns nil (no error) when brokers are not configured; callers treat a nil
// producer as publishing disabled.
func NewWalletEventProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*WalletEventProducer, error) {
	if cfg.Brokers == "" {
		logger.Info("Kafka brokers not configured, wallet event publishing disabled")
		return nil, nil
	}
	if cfg.EventsTopic == "" {
		return nil, fmt.Errorf("kafka events topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for wallet event producer: %w", err)
	}
	defer conn.Close()

	err = createKafkaTopicIfNotExists(conn, cfg.EventsTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure events topic %s exists: %w", cfg.EventsTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.EventsTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        true, // Publishing must never slow down settlement
		WriteTimeout: cfg.WriteTimeout,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Failed to write wallet events asynchronously", "topic", cfg.EventsTopic, "error", err, "count", len(messages))
			} else {
				logger.Debug("Successfully wrote wallet events asynchronously", "topic", cfg.EventsTopic, "count", len(messages))
			}
		},
	}

	return &WalletEventProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.EventsTopic,
	}, nil
}

// Publish sends one wallet event keyed by its correlation value (usually the
// payment reference or transaction id, so one deposit's events stay ordered)
func (p *WalletEventProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal wallet event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish wallet event",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish wallet event to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published wallet event",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

func (p *WalletEventProducer) Close() error {
	p.logger.Info("Closing wallet event producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
