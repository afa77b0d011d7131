package events

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Wildcard subscribes a listener to every event.
const Wildcard = "*"

// ListenerTimeout bounds how long a single listener may run.
const ListenerTimeout = time.Minute

// Listener handles one event. Errors are logged, never returned to the
// publisher.
type Listener func(ctx context.Context, event Event) error

// Publisher is what the services depend on.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// Bus fans events out to subscribed listeners on their own goroutines.
type Bus struct {
	listeners map[string][]Listener
	mu        sync.RWMutex
	logger    *zap.Logger
	wg        sync.WaitGroup
}

// NewBus creates an empty bus.
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{
		listeners: make(map[string][]Listener),
		logger:    logger,
	}
}

// Subscribe registers listener for eventName, or for every event when
// eventName is Wildcard.
func (b *Bus) Subscribe(eventName string, listener Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[eventName] = append(b.listeners[eventName], listener)
}

// Publish delivers event to its listeners asynchronously. The caller's
// context is not propagated: events are published after commit and must
// outlive the request.
func (b *Bus) Publish(_ context.Context, event Event) {
	b.mu.RLock()
	targets := append([]Listener{}, b.listeners[event.Name()]...)
	targets = append(targets, b.listeners[Wildcard]...)
	b.mu.RUnlock()

	for _, listener := range targets {
		b.wg.Add(1)
		go func(l Listener) {
			defer b.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), ListenerTimeout)
			defer cancel()

			if err := l(ctx, event); err != nil {
				b.logger.Error("Event listener failed",
					zap.String("event", event.Name()),
					zap.Error(err),
				)
			}
		}(listener)
	}
}

// Wait blocks until every listener started so far has returned.
func (b *Bus) Wait() {
	b.wg.Wait()
}
