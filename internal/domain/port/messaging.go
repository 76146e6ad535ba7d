package port

import "context"

// Delivery is one inbound broker message. Ack must be called at most once,
// and only after the outcome has been published.
type Delivery interface {
	Body() []byte
	Ack() error
}

type MetadataPublisher interface {
	PublishMetadata(ctx context.Context, msg []byte) error
}
