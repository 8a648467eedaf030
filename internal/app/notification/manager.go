// Package notification fans engine events out to subscribed sinks.
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jacobreesgit/MusicTrackingNew/internal/app/monitor"
)

// sendTimeout bounds how long a slow subscriber can hold up a broadcast.
const sendTimeout = 500 * time.Millisecond

// Stream receives engine events for one subscriber.
type Stream interface {
	Send(monitor.Event) error
}

// StreamFunc adapts a function to the Stream interface.
type StreamFunc func(monitor.Event) error

// Send calls f.
func (f StreamFunc) Send(ev monitor.Event) error {
	return f(ev)
}

type subscription struct {
	id     string
	stream Stream
}

// Manager manages event subscriptions and broadcasting.
type Manager struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
}

// NewManager creates a new notification manager.
func NewManager() *Manager {
	return &Manager{
		subscriptions: make(map[string]*subscription),
	}
}

// Subscribe adds a new subscription and returns the subscription ID.
func (m *Manager) Subscribe(stream Stream) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	m.subscriptions[id] = &subscription{id: id, stream: stream}
	return id
}

// Unsubscribe removes a subscription.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscriptions, subscriptionID)
}

// Broadcast delivers an event to all subscribers. Each send runs in its own
// goroutine with a timeout so one stuck subscriber cannot stall the rest.
// Send errors are ignored; delivery is fire-and-forget.
func (m *Manager) Broadcast(ev monitor.Event) {
	m.mu.RLock()
	subs := make([]*subscription, 0, len(m.subscriptions))
	for _, sub := range m.subscriptions {
		subs = append(subs, sub)
	}
	m.mu.RUnlock()

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(s *subscription) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
			defer cancel()

			done := make(chan error, 1)
			go func() {
				done <- s.stream.Send(ev)
			}()

			select {
			case <-done:
			case <-ctx.Done():
			}
		}(sub)
	}
	wg.Wait()
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions)
}

// Close removes all subscriptions.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions = make(map[string]*subscription)
}
