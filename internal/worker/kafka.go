package worker

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	kafkaMaxAttempts = 3
	kafkaRetryDelay  = time.Second
)

// KafkaConsumer reads order events from a consumer group. Offsets are
// committed after the event was handled or given up on.
type KafkaConsumer struct {
	reader *kafka.Reader
	worker *OrderWorker
}

func NewKafkaConsumer(brokers []string, topic, groupID string, w *OrderWorker) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})
	return &KafkaConsumer{reader: reader, worker: w}
}

// Run blocks until ctx is cancelled or the reader is closed.
func (c *KafkaConsumer) Run(ctx context.Context) error {
	c.worker.log.Info("order worker started", "broker", "kafka", "topic", c.reader.Config().Topic)
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			c.worker.log.Error("fetch order event", "error", err)
			continue
		}

		c.process(ctx, msg.Value)

		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.worker.log.Error("commit order event", "offset", msg.Offset, "error", err)
		}
	}
}

func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}

func (c *KafkaConsumer) process(ctx context.Context, body []byte) {
	event, err := Decode(body)
	if err != nil {
		c.worker.log.Error("decode order event", "error", err)
		c.worker.metrics.EventHandled("unknown", "malformed")
		return
	}

	for attempt := 1; attempt <= kafkaMaxAttempts; attempt++ {
		err = c.worker.Handle(ctx, event)
		if err == nil || errors.Is(err, ErrMalformedEvent) {
			break
		}
		c.worker.log.Warn("handle order event", "event_id", event.EventID, "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(kafkaRetryDelay * time.Duration(attempt)):
		}
	}
	if err != nil {
		c.worker.log.Error("giving up on order event", "event_id", event.EventID, "error", err)
		c.worker.metrics.EventHandled(string(event.Type), "failed")
	}
}
