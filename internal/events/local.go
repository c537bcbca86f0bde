package events

import (
	"sync"
)

// LocalBus delivers events inside the process. It stands in for NATS when
// NATS_URL is not configured, so the bot still gets slot alerts. Handlers
// run on their own goroutines and never block the publisher.
type LocalBus struct {
	mu       sync.RWMutex
	handlers []SlotOpenedHandler
	inflight sync.WaitGroup
}

func NewLocalBus() *LocalBus {
	return &LocalBus{}
}

func (b *LocalBus) PublishSlotOpened(event SlotOpenedEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, h := range b.handlers {
		b.inflight.Add(1)
		go func(h SlotOpenedHandler) {
			defer b.inflight.Done()
			h(event)
		}(h)
	}
	return nil
}

// PublishOneTimeBooked has no local consumers.
func (b *LocalBus) PublishOneTimeBooked(OneTimeBookedEvent) error {
	return nil
}

func (b *LocalBus) SubscribeSlotOpened(handler SlotOpenedHandler) error {
	b.mu.Lock()
	b.handlers = append(b.handlers, handler)
	b.mu.Unlock()
	return nil
}

// Wait blocks until every delivery started so far has returned.
func (b *LocalBus) Wait() {
	b.inflight.Wait()
}

// Close drops the subscribers and waits for running deliveries.
func (b *LocalBus) Close() {
	b.mu.Lock()
	b.handlers = nil
	b.mu.Unlock()
	b.inflight.Wait()
}
