package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
)

var ErrPublishNacked = errors.New("publish not confirmed by broker")

// Publisher owns a channel in confirm mode. amqp091 channels serialise
// publishes internally, so one Publisher is shared by all event handlers.
type Publisher struct {
	channel *amqp.Channel
}

func NewPublisher(conn *amqp.Connection) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open publisher channel: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("enable publisher confirms: %w", err)
	}
	return &Publisher{channel: ch}, nil
}

func (p *Publisher) Close() error {
	return p.channel.Close()
}

// publish sends msg to queue through the default exchange and waits for the
// broker confirmation.
func (p *Publisher) publish(ctx context.Context, queue string, msg []byte) error {
	headers := amqp.Table{}
	otel.GetTextMapPropagator().Inject(ctx, HeaderCarrier(headers))

	dc, err := p.channel.PublishWithDeferredConfirmWithContext(ctx,
		"",
		queue,
		false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         msg,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Headers:      headers,
		},
	)
	if err != nil {
		return fmt.Errorf("publish to %s: %w", queue, err)
	}

	ok, err := dc.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("await confirm from %s: %w", queue, err)
	}
	if !ok {
		return fmt.Errorf("publish to %s: %w", queue, ErrPublishNacked)
	}
	return nil
}

type MetadataPublisher struct {
	pub   *Publisher
	queue string
}

func NewMetadataPublisher(pub *Publisher, queue string) *MetadataPublisher {
	return &MetadataPublisher{pub: pub, queue: queue}
}

func (mp *MetadataPublisher) PublishMetadata(ctx context.Context, msg []byte) error {
	return mp.pub.publish(ctx, mp.queue, msg)
}
