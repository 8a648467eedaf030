package notification

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacobreesgit/MusicTrackingNew/internal/app/monitor"
)

type recordingStream struct {
	mu     sync.Mutex
	events []monitor.Event
}

func (s *recordingStream) Send(ev monitor.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *recordingStream) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestManager_SubscribeAndBroadcast(t *testing.T) {
	m := NewManager()
	defer m.Close()

	first := &recordingStream{}
	second := &recordingStream{}
	m.Subscribe(first)
	m.Subscribe(second)
	require.Equal(t, 2, m.SubscriberCount())

	m.Broadcast(monitor.Event{Type: monitor.EventTrackStarted})

	assert.Equal(t, 1, first.count())
	assert.Equal(t, 1, second.count())
}

func TestManager_Unsubscribe(t *testing.T) {
	m := NewManager()
	defer m.Close()

	stream := &recordingStream{}
	id := m.Subscribe(stream)
	m.Unsubscribe(id)
	assert.Equal(t, 0, m.SubscriberCount())

	m.Broadcast(monitor.Event{Type: monitor.EventTrackStarted})
	assert.Equal(t, 0, stream.count())
}

func TestManager_SlowSubscriberDoesNotBlockOthers(t *testing.T) {
	m := NewManager()
	defer m.Close()

	fast := &recordingStream{}
	m.Subscribe(fast)
	m.Subscribe(StreamFunc(func(monitor.Event) error {
		time.Sleep(2 * sendTimeout)
		return nil
	}))

	start := time.Now()
	m.Broadcast(monitor.Event{Type: monitor.EventSessionEnded})
	elapsed := time.Since(start)

	assert.Equal(t, 1, fast.count())
	assert.Less(t, elapsed, 2*sendTimeout, "broadcast must give up on slow subscribers")
}

func TestManager_CloseRemovesAll(t *testing.T) {
	m := NewManager()
	m.Subscribe(&recordingStream{})
	m.Close()
	assert.Equal(t, 0, m.SubscriberCount())
}
