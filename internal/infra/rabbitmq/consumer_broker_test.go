package rabbitmq

import (
	"context"
	"fmt"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcrabbitmq "github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"go.uber.org/zap"

	"github.com/fiapx/frameflow/internal/domain/port"
)

func TestConsumerKeepsDeliveringAfterManyFailures(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	container, err := tcrabbitmq.Run(ctx, "rabbitmq:3.13-management-alpine")
	require.NoError(t, err)
	defer container.Terminate(ctx)

	url, err := container.AmqpURL(ctx)
	require.NoError(t, err)

	handled := make(chan string, 1)
	handler := func(ctx context.Context, d port.Delivery) error {
		if err := jsonHandler(ctx, d); err != nil {
			return err
		}
		handled <- string(d.Body())
		return nil
	}

	consumer, err := NewConsumer(ConsumerConfig{
		URL:           url,
		Queue:         "video-process-queue",
		MetadataQueue: "video-metadata-queue",
		ConsumerTag:   "frameflow-test",
	}, handler, zap.NewNop())
	require.NoError(t, err)
	defer consumer.Close()

	consumerCtx, consumerCancel := context.WithCancel(ctx)
	defer consumerCancel()
	go consumer.Start(consumerCtx)

	conn, err := amqp.Dial(url)
	require.NoError(t, err)
	defer conn.Close()
	ch, err := conn.Channel()
	require.NoError(t, err)
	defer ch.Close()

	publish := func(body string) {
		require.NoError(t, ch.PublishWithContext(ctx, "", "video-process-queue", false, false,
			amqp.Publishing{ContentType: "application/json", Body: []byte(body)}))
	}

	// more failures than any small prefetch window would hold
	for i := 0; i < 20; i++ {
		publish(fmt.Sprintf("{broken %d", i))
	}
	publish(`{"reference":"after-failures"}`)

	select {
	case body := <-handled:
		assert.JSONEq(t, `{"reference":"after-failures"}`, body)
	case <-time.After(30 * time.Second):
		t.Fatal("valid event was not delivered after failed ones")
	}

	q, err := ch.QueueDeclarePassive("video-process-queue", true, false, false, false, nil)
	require.NoError(t, err)
	assert.Zero(t, q.Messages, "failed events are held unacked, not requeued")
}
