package bus

import "context"

// Subscriber receives values published to a Bus. Implementations must
// be safe for concurrent use.
type Subscriber[T any] interface {
	// Receive returns the channel delivering published values. The
	// channel is closed once the subscriber or the bus closes. The
	// context is unused by the in-memory bus but kept so adapters with
	// blocking receives can honor cancellation.
	Receive(ctx context.Context) <-chan T

	// Close unsubscribes and closes the receive channel. Idempotent.
	Close() error
}

// Bus is an in-process publish/subscribe channel decoupling event
// writers from the delivery layer. Delivery is fire-and-forget: no
// acknowledgement, no retry, no backpressure.
type Bus[T any] interface {
	// Subscribe registers a new subscriber. The subscription is torn
	// down automatically when ctx is cancelled.
	Subscribe(ctx context.Context) Subscriber[T]

	// Publish sends v to every active subscriber without blocking.
	// Subscribers with a full buffer miss the value.
	Publish(ctx context.Context, v T) error

	// Close shuts down the bus and every subscriber. Idempotent.
	Close() error
}
