// Package bus provides a type-safe in-process publish/subscribe channel.
//
// It decouples the code that records notifications from the code that
// pushes them to live connections. Delivery is deliberately
// fire-and-forget: a publisher never blocks on, retries for, or queues
// behind a subscriber. Durability belongs to the persisted notification
// store, not to this channel.
//
//	b := bus.NewMemoryBus[string](16)
//	defer b.Close()
//
//	sub := b.Subscribe(ctx)
//	defer sub.Close()
//
//	b.Publish(ctx, "hello")
//	for v := range sub.Receive(ctx) {
//		fmt.Println(v)
//	}
//
// Scaling beyond one process requires an external broker and a different
// Bus implementation; the interface is kept small to allow that swap.
package bus
