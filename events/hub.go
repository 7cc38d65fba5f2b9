// events/hub.go
package events

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Event types.
const (
	ItemCreated   = "item_created"
	ItemUpdated   = "item_updated"
	ItemDeleted   = "item_deleted"
	RecordCreated = "record_created"
	RecordUpdated = "record_updated"
	VideoProgress = "video_progress"
	VideoDone     = "video_done"
	VideoFailed   = "video_failed"
)

type Message struct {
	Type     string `json:"type"`
	Module   string `json:"module,omitempty"`
	ID       string `json:"id,omitempty"`
	Status   string `json:"status,omitempty"`
	Progress int    `json:"progress,omitempty"`
	Payload  any    `json:"payload,omitempty"`
}

// Subscriber receives broadcast messages on C until it is unsubscribed.
type Subscriber struct {
	C  <-chan Message
	ch chan Message
}

type Hub struct {
	clients    map[*Subscriber]bool
	broadcast  chan Message
	register   chan *Subscriber
	unregister chan *Subscriber
	mu         sync.RWMutex
	log        zerolog.Logger
	bufferSize int
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Subscriber]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Subscriber),
		unregister: make(chan *Subscriber),
		log:        log.With().Str("component", "events").Logger(),
		bufferSize: 64,
	}
}

// Run dispatches messages until ctx is done, then closes every subscriber.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for sub := range h.clients {
				delete(h.clients, sub)
				close(sub.ch)
			}
			h.mu.Unlock()
			return

		case sub := <-h.register:
			h.mu.Lock()
			h.clients[sub] = true
			h.mu.Unlock()

		case sub := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[sub]; ok {
				delete(h.clients, sub)
				close(sub.ch)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			for sub := range h.clients {
				select {
				case sub.ch <- msg:
				default:
					h.log.Warn().Str("type", msg.Type).Msg("subscriber too slow, dropping event")
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast queues msg for every subscriber. It never blocks: when the queue
// is full the message is dropped.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		h.log.Warn().Str("type", msg.Type).Msg("event queue full, dropping event")
	}
}

// Subscribe registers a new subscriber. It blocks until Run accepts it or
// ctx is done.
func (h *Hub) Subscribe(ctx context.Context) (*Subscriber, error) {
	ch := make(chan Message, h.bufferSize)
	sub := &Subscriber{C: ch, ch: ch}
	select {
	case h.register <- sub:
		return sub, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Unsubscribe removes sub and closes its channel.
func (h *Hub) Unsubscribe(ctx context.Context, sub *Subscriber) {
	select {
	case h.unregister <- sub:
	case <-ctx.Done():
	}
}

// Subscribers reports how many subscribers are registered.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
