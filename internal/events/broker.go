// Package events fans lifecycle changes out to interested subscribers
// (notifications, metrics, the server-sent event stream).
package events

import (
	"sync"
	"time"

	"github.com/waabox/testdeck/internal/domain"
	"go.uber.org/zap"
)

// Type names a lifecycle change.
type Type string

const (
	PipelineCreated    Type = "pipeline.created"
	PipelineUpdated    Type = "pipeline.updated"
	PipelineDeleted    Type = "pipeline.deleted"
	ExecutionStarted   Type = "execution.started"
	ExecutionCompleted Type = "execution.completed"
)

// Event is a single lifecycle change. Pipeline is set for pipeline events,
// Execution for execution events.
type Event struct {
	Type      Type              `json:"type"`
	At        time.Time         `json:"at"`
	Pipeline  *domain.Pipeline  `json:"pipeline,omitempty"`
	Execution *domain.Execution `json:"execution,omitempty"`
}

// Broker delivers events to subscribers without ever blocking the publisher.
// A subscriber whose buffer is full misses the event.
type Broker struct {
	mu      sync.RWMutex
	clients map[chan Event]struct{}
	log     *zap.Logger
}

// NewBroker creates a broker with no subscribers.
func NewBroker(log *zap.Logger) *Broker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Broker{
		clients: make(map[chan Event]struct{}),
		log:     log,
	}
}

// Subscribe registers a subscriber with the given buffer size.
// The returned function unsubscribes and closes the channel; it is safe to call more than once.
func (b *Broker) Subscribe(buffer int) (<-chan Event, func()) {
	ch := make(chan Event, buffer)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	total := len(b.clients)
	b.mu.Unlock()
	b.log.Debug("event subscriber added", zap.Int("subscribers", total))

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.clients, ch)
			close(ch)
			total := len(b.clients)
			b.mu.Unlock()
			b.log.Debug("event subscriber removed", zap.Int("subscribers", total))
		})
	}
}

// Publish sends ev to every subscriber that has room for it.
func (b *Broker) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	dropped := 0
	for ch := range b.clients {
		select {
		case ch <- ev:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		b.log.Warn("event dropped for slow subscribers", zap.String("type", string(ev.Type)), zap.Int("dropped", dropped))
	}
}
