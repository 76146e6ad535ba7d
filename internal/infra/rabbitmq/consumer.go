package rabbitmq

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/fiapx/frameflow/internal/domain/port"
	"github.com/fiapx/frameflow/internal/infra/metrics"
)

type MessageHandler func(ctx context.Context, d port.Delivery) error

// Consumer runs one goroutine per delivery. Failed deliveries are never
// nacked: they stay unacknowledged until the connection drops and the broker
// redelivers them. Each one holds a prefetch slot meanwhile, so a non-zero
// prefetch stops delivery once that many events have failed.
type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	tag     string
	handler MessageHandler
	logger  *zap.Logger
	wg      sync.WaitGroup
}

type ConsumerConfig struct {
	URL           string
	Queue         string
	MetadataQueue string
	ConsumerTag   string
	Prefetch      int
}

func NewConsumer(cfg ConsumerConfig, handler MessageHandler, logger *zap.Logger) (*Consumer, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := DeclareQueues(ch, cfg.Queue, cfg.MetadataQueue); err != nil {
		conn.Close()
		return nil, err
	}

	if cfg.Prefetch > 0 {
		logger.Warn("prefetch limits how many failed events the consumer can hold before delivery stops",
			zap.Int("prefetch", cfg.Prefetch))
	}
	err = ch.Qos(cfg.Prefetch, 0, false)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}

	return &Consumer{
		conn:    conn,
		channel: ch,
		queue:   cfg.Queue,
		tag:     cfg.ConsumerTag,
		handler: handler,
		logger:  logger,
	}, nil
}

func DeclareQueues(ch *amqp.Channel, queues ...string) error {
	for _, q := range queues {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", q, err)
		}
	}
	return nil
}

// Start consumes until ctx is cancelled, then waits for in-flight events.
func (c *Consumer) Start(ctx context.Context) error {
	deliveries, err := c.channel.ConsumeWithContext(
		ctx,
		c.queue,
		c.tag,
		false, // autoAck=false
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	c.logger.Info("consuming", zap.String("queue", c.queue))

	c.dispatch(ctx, deliveries)

	c.logger.Info("consumer stopped, waiting for in-flight events")
	c.wg.Wait()
	return nil
}

func (c *Consumer) dispatch(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				c.logger.Warn("delivery channel closed")
				return
			}
			c.wg.Add(1)
			// in-flight events finish even when shutdown starts
			go c.processDelivery(context.WithoutCancel(ctx), d)
		}
	}
}

func (c *Consumer) processDelivery(ctx context.Context, d amqp.Delivery) {
	defer c.wg.Done()
	log := c.logger.With(zap.Uint64("delivery_tag", d.DeliveryTag), zap.Bool("redelivered", d.Redelivered))

	metrics.EventsInFlight.Inc()
	defer metrics.EventsInFlight.Dec()

	defer func() {
		if r := recover(); r != nil {
			metrics.EventsTotal.WithLabelValues("panic").Inc()
			log.Error("event handler panicked, leaving message unacknowledged", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()

	ctx = otel.GetTextMapPropagator().Extract(ctx, HeaderCarrier(d.Headers))

	if err := c.handler(ctx, &delivery{d: d}); err != nil {
		log.Error("event processing failed, leaving message unacknowledged", zap.Error(err))
	}
}

func (c *Consumer) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

type delivery struct {
	d     amqp.Delivery
	mu    sync.Mutex
	acked bool
}

func (d *delivery) Body() []byte {
	return d.d.Body
}

func (d *delivery) Ack() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.acked {
		return nil
	}
	if err := d.d.Ack(false); err != nil {
		return fmt.Errorf("ack delivery %d: %w", d.d.DeliveryTag, err)
	}
	d.acked = true
	return nil
}
