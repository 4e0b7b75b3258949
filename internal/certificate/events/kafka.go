package events

import (
	"context"
	"encoding/json"
	"fmt"

	"campus/internal/platform/kafka/producer"
)

// Producer is the part of the Kafka producer the exporter uses.
type Producer interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// KafkaSubscriber exports events as JSON records keyed by certificate ID,
// so every event for one certificate lands on the same partition.
type KafkaSubscriber struct {
	producer Producer
	topic    string
}

func NewKafkaSubscriber(p Producer, topic string) *KafkaSubscriber {
	return &KafkaSubscriber{producer: p, topic: topic}
}

func (s *KafkaSubscriber) Name() string { return "kafka" }

func (s *KafkaSubscriber) Handle(ctx context.Context, e Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return s.producer.Produce(ctx, &producer.Message{
		Topic: s.topic,
		Key:   []byte(e.Certificate.CertificateID),
		Value: value,
		Headers: map[string]string{
			"event_id":   e.ID,
			"event_type": string(e.Type),
		},
	})
}
