// Package events publishes domain events to kafka. Publishing is
// best-effort: auth and payment flows never fail because the broker is down.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	TypeUserRegistered       = "user.registered"
	TypeUserStatusChanged    = "user.status_changed"
	TypeTransactionSimulated = "transaction.simulated"
)

type envelope struct {
	Type string    `json:"type"`
	At   time.Time `json:"at"`
	Data any       `json:"data"`
}

type Producer struct {
	writer *kafka.Writer
	log    *slog.Logger
}

// NewProducer returns nil when no brokers are configured; a nil Producer is
// safe to publish on and does nothing.
func NewProducer(brokers []string, topic string, log *slog.Logger) *Producer {
	if len(brokers) == 0 {
		return nil
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
	return &Producer{writer: w, log: log}
}

// Publish serializes the event and hands it to kafka, logging failures
// instead of propagating them.
func (p *Producer) Publish(ctx context.Context, eventType, key string, data any) {
	if p == nil || p.writer == nil {
		return
	}
	payload, err := json.Marshal(envelope{Type: eventType, At: time.Now().UTC(), Data: data})
	if err != nil {
		p.log.Error("event marshal failed", "type", eventType, "error", err)
		return
	}

	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err = p.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(key),
		Value: payload,
	})
	if err != nil {
		p.log.Warn("event publish failed", "type", eventType, "error", err)
	}
}

func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
