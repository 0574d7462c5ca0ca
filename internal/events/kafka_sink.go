// Package events streams committed ledger transactions to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/pkg/metrics"
)

// TransactionEvent is the message value. Consumers de-duplicate on Ref.
type TransactionEvent struct {
	Ref         string `json:"ref"`
	ID          uint   `json:"id"`
	CompanyID   uint   `json:"company_id"`
	ProductID   *uint  `json:"product_id"`
	ProductName string `json:"product_name"`
	Type        string `json:"type"`
	Quantity    int    `json:"quantity"`
	Value       string `json:"value"`
	Country     string `json:"country"`
	Timestamp   string `json:"timestamp"`
}

func NewTransactionEvent(t model.Transaction) TransactionEvent {
	return TransactionEvent{
		Ref:         t.Ref.String(),
		ID:          t.ID,
		CompanyID:   t.CompanyID,
		ProductID:   t.ProductID,
		ProductName: t.ProductName,
		Type:        string(t.Type),
		Quantity:    t.Quantity,
		Value:       t.Value.StringFixed(2),
		Country:     t.Country,
		Timestamp:   t.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink writes each transaction as one JSON message keyed by its ref. Delivery is
// at-least-once; failures are logged and counted, never returned to the ledger.
type KafkaSink struct {
	writer  messageWriter
	topic   string
	timeout time.Duration
	log     zerolog.Logger
	metrics *metrics.Metrics
}

func NewKafkaSink(brokers []string, topic string, log zerolog.Logger, m *metrics.Metrics) *KafkaSink {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            5,
		WriteBackoffMin:        100 * time.Millisecond,
		WriteBackoffMax:        time.Second,
	}
	log.Info().Strs("brokers", brokers).Str("topic", topic).Msg("kafka sink created")
	return newSink(writer, topic, log, m)
}

func newSink(w messageWriter, topic string, log zerolog.Logger, m *metrics.Metrics) *KafkaSink {
	return &KafkaSink{writer: w, topic: topic, timeout: 10 * time.Second, log: log, metrics: m}
}

// Emit blocks until the batch is acknowledged or the sink's timeout expires.
func (s *KafkaSink) Emit(ctx context.Context, txs []model.Transaction) {
	if len(txs) == 0 {
		return
	}
	msgs := make([]kafka.Message, 0, len(txs))
	for _, t := range txs {
		value, err := json.Marshal(NewTransactionEvent(t))
		if err != nil {
			s.log.Error().Err(err).Str("ref", t.Ref.String()).Msg("marshal ledger event")
			continue
		}
		msgs = append(msgs, kafka.Message{Key: []byte(t.Ref.String()), Value: value})
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	err := s.writer.WriteMessages(ctx, msgs...)
	s.metrics.EventPublished(err)
	if err != nil {
		s.log.Error().Err(err).Str("topic", s.topic).Int("count", len(msgs)).Msg("failed to write ledger events")
		return
	}
	s.log.Debug().Str("topic", s.topic).Int("count", len(msgs)).Msg("ledger events written")
}

func (s *KafkaSink) Close() error {
	if err := s.writer.Close(); err != nil {
		return fmt.Errorf("close kafka writer: %w", err)
	}
	return nil
}
