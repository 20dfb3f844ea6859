package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/punchamoorthee/globalpay/internal/events"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Publisher struct {
	writer messageWriter
}

func NewPublisher(brokers []string, topic string) *Publisher {
	if topic == "" {
		topic = events.TopicTransferCompleted
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
	}
}

// PublishTransferCompleted keys the message by idempotency key so replays of
// the same transfer land on the same partition.
func (p *Publisher) PublishTransferCompleted(ctx context.Context, event events.TransferCompleted) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.IdempotencyKey),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(events.TopicTransferCompleted)},
		},
	})
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
