package bus

import (
	"context"
	"sync"
)

type subscriber[T any] struct {
	ch     chan T
	closed bool
	mu     sync.RWMutex
}

func (s *subscriber[T]) Receive(ctx context.Context) <-chan T {
	return s.ch
}

func (s *subscriber[T]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		close(s.ch)
		s.closed = true
	}
	return nil
}

// send delivers without blocking. A full buffer drops the value but
// keeps the subscription alive; only a closed subscriber reports dead.
func (s *subscriber[T]) send(v T) (dead bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return true
	}
	select {
	case s.ch <- v:
	default:
	}
	return false
}

// MemoryBus is the single-process Bus implementation. A publisher never
// blocks on a slow subscriber: when a subscriber's buffer is full the
// value is dropped for that subscriber only.
type MemoryBus[T any] struct {
	subscribers map[*subscriber[T]]struct{}
	bufferSize  int
	done        chan struct{}
	closed      bool
	mu          sync.RWMutex
	cleanupWg   sync.WaitGroup
}

// NewMemoryBus creates an in-memory bus. bufferSize is the per-subscriber
// channel buffer; a minimum of 1 is enforced so sends stay non-blocking.
func NewMemoryBus[T any](bufferSize int) *MemoryBus[T] {
	return &MemoryBus[T]{
		subscribers: make(map[*subscriber[T]]struct{}),
		bufferSize:  max(bufferSize, 1),
		done:        make(chan struct{}),
	}
}

func (b *MemoryBus[T]) Subscribe(ctx context.Context) Subscriber[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &subscriber[T]{ch: make(chan T, b.bufferSize)}
	if b.closed {
		_ = sub.Close()
		return sub
	}
	b.subscribers[sub] = struct{}{}

	if ctx.Done() != nil {
		b.cleanupWg.Add(1)
		go func() {
			defer b.cleanupWg.Done()
			// Closing the bus releases the watcher even when the
			// subscriber's context outlives it.
			select {
			case <-ctx.Done():
			case <-b.done:
			}
			b.unsubscribe(sub)
		}()
	}

	return sub
}

func (b *MemoryBus[T]) Publish(ctx context.Context, v T) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrClosed
	}

	for sub := range b.subscribers {
		if sub.send(v) {
			// Closed subscribers are pruned asynchronously so a publish
			// never contends for the write lock.
			go b.unsubscribe(sub)
		}
	}
	return nil
}

func (b *MemoryBus[T]) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.done)
	for sub := range b.subscribers {
		_ = sub.Close()
	}
	clear(b.subscribers)
	b.mu.Unlock()

	// Wait for context-cancellation watchers so Close never races an
	// in-flight unsubscribe.
	b.cleanupWg.Wait()
	return nil
}

func (b *MemoryBus[T]) unsubscribe(sub *subscriber[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subscribers, sub)
	_ = sub.Close()
}
