// Package kafka publishes learning-event notifications so downstream
// consumers (dashboards, audit) can follow profile evolution without
// polling the store.
package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/wucy1/ProDocuX/internal/config"
	"github.com/wucy1/ProDocuX/internal/infrastructure/monitoring/logging"
	"github.com/wucy1/ProDocuX/pkg/errors"
	learningtypes "github.com/wucy1/ProDocuX/pkg/types/learning"
)

// EventNotification is the published message body.
type EventNotification struct {
	EventID        string                     `json:"event_id"`
	WorkID         string                     `json:"work_id"`
	Profile        string                     `json:"profile"`
	Source         learningtypes.EventSource  `json:"source"`
	Status         learningtypes.EventStatus  `json:"status"`
	DiffCount      int                        `json:"diff_count"`
	ProfileVersion int                        `json:"profile_version,omitempty"`
	Reason         string                     `json:"reason,omitempty"`
	OccurredAt     time.Time                  `json:"occurred_at"`
}

// Producer writes learning-event notifications to one topic.
type Producer struct {
	writer *kafka.Writer
	logger logging.Logger
}

// NewProducer constructs a Producer from config.
func NewProducer(cfg config.KafkaConfig, logger logging.Logger) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			MaxAttempts:  cfg.ProducerRetries,
			BatchTimeout: time.Duration(cfg.BatchTimeoutMS) * time.Millisecond,
			RequiredAcks: kafka.RequireAll,
		},
		logger: logger.Named("kafka-producer"),
	}
}

// Publish sends one notification, keyed by work ID so a workflow's events
// stay ordered within a partition.
func (p *Producer) Publish(ctx context.Context, n EventNotification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "cannot encode notification")
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(n.WorkID),
		Value: payload,
		Time:  n.OccurredAt,
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeMessageQueueError, "notification publish failed")
	}
	p.logger.Debug("event notification published",
		logging.String("event_id", n.EventID), logging.String("status", string(n.Status)))
	return nil
}

// Close flushes and closes the writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
