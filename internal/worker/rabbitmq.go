package worker

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/flicky/marketplace-api/internal/events"
)

// RabbitMQConsumer feeds the order events queue into an OrderWorker.
type RabbitMQConsumer struct {
	channel *amqp.Channel
	worker  *OrderWorker
	done    chan struct{}
}

func NewRabbitMQConsumer(ch *amqp.Channel, w *OrderWorker) *RabbitMQConsumer {
	return &RabbitMQConsumer{channel: ch, worker: w, done: make(chan struct{})}
}

func (c *RabbitMQConsumer) Start(ctx context.Context) error {
	if err := c.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	msgs, err := c.channel.Consume(events.QueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				c.processMessage(ctx, msg)
			case <-c.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	c.worker.log.Info("order worker started", "broker", "rabbitmq", "queue", events.QueueName)
	return nil
}

func (c *RabbitMQConsumer) Stop() { close(c.done) }

func (c *RabbitMQConsumer) processMessage(ctx context.Context, msg amqp.Delivery) {
	ack := c.dispose(ctx, msg.Body)
	switch ack {
	case ackDone:
		_ = msg.Ack(false)
	case ackDeadLetter:
		_ = msg.Nack(false, false)
	case ackRetry:
		_ = msg.Nack(false, true)
	}
}

type disposition int

const (
	ackDone disposition = iota
	ackDeadLetter
	ackRetry
)

// dispose decides what happens to a delivery: malformed payloads go to the
// DLQ, store failures are requeued.
func (c *RabbitMQConsumer) dispose(ctx context.Context, body []byte) disposition {
	event, err := Decode(body)
	if err != nil {
		c.worker.log.Error("decode order event", "error", err)
		c.worker.metrics.EventHandled("unknown", "malformed")
		return ackDeadLetter
	}
	if err := c.worker.Handle(ctx, event); err != nil {
		c.worker.log.Error("handle order event", "event_id", event.EventID, "error", err)
		if errors.Is(err, ErrMalformedEvent) {
			return ackDeadLetter
		}
		return ackRetry
	}
	return ackDone
}
