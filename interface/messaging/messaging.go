package messaging

import (
	"context"
	"time"
)

// Publisher is an interface to publish messages
type Publisher interface {
	Publish(ctx context.Context, data ...[]byte) error
}

type Message struct {
	ID          string
	Data        []byte
	Attributes  map[string]string
	PublishTime time.Time
	// TryCount is the number of deliveries of the message (-1 if unknown)
	TryCount int
}

// Callback is a function that processes a Message.
// A temporary error (see utils.Temporary) leaves the message in the queue to be retried,
// any other error acknowledges it.
type Callback func(ctx context.Context, m *Message) error

// Consumer is an interface to consume messages
type Consumer interface {
	// Pull the next message, call callback and return
	Pull(ctx context.Context, cb Callback) error
}
