// Package events carries the engine's outbound notifications to whoever is
// watching, typically the gateway's websocket clients.
package events

import (
	"sync"

	"github.com/AmirAgassi/rizzly/internal/logging"
)

// Event is a typed notification frame. Type names the payload shape.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// DownloadProgress is emitted once per downloaded image during a profile
// walk, and a final time with IsComplete set.
type DownloadProgress struct {
	ImageCount  int    `json:"imageCount"`
	ImageBase64 string `json:"imageBase64,omitempty"`
	IsComplete  bool   `json:"isComplete"`
}

// EmergencyAlert is emitted when an intervention begins, before the first
// character is deleted.
type EmergencyAlert struct {
	Message string `json:"message"`
	Emotion string `json:"emotion"`
}

// StatusUpdate reports monitor lifecycle changes.
type StatusUpdate struct {
	Monitoring bool   `json:"monitoring"`
	Detail     string `json:"detail,omitempty"`
}

const (
	TypeDownloadProgress = "download_progress"
	TypeEmergencyAlert   = "emergency_alert"
	TypeStatusUpdate     = "status_update"
)

const subscriberBuffer = 64

// Bus fans events out to subscribers. Publishing never blocks: a subscriber
// whose buffer is full loses the event rather than stalling the engine.
type Bus struct {
	logger logging.Logger

	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
	closed bool
}

func NewBus(logger logging.Logger) *Bus {
	return &Bus{
		logger: logging.OrNop(logger),
		subs:   make(map[int]chan Event),
	}
}

// Subscribe registers a listener. The returned cancel func must be called to
// release the subscription; the channel is closed afterwards.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	if b == nil {
		ch := make(chan Event)
		close(ch)
		return ch, func() {}
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers ev to every current subscriber. Safe on a nil bus.
func (b *Bus) Publish(ev Event) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.logger.Warn("event bus: subscriber %d full, dropping %s", id, ev.Type)
		}
	}
}

// PublishDownloadProgress publishes a progress frame.
func (b *Bus) PublishDownloadProgress(p DownloadProgress) {
	b.Publish(Event{Type: TypeDownloadProgress, Payload: p})
}

// PublishEmergencyAlert publishes an intervention alert frame.
func (b *Bus) PublishEmergencyAlert(a EmergencyAlert) {
	b.Publish(Event{Type: TypeEmergencyAlert, Payload: a})
}

// PublishStatus publishes a monitor status frame.
func (b *Bus) PublishStatus(s StatusUpdate) {
	b.Publish(Event{Type: TypeStatusUpdate, Payload: s})
}

// Close drops all subscribers and closes their channels. Publishing after
// Close is a no-op.
func (b *Bus) Close() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
