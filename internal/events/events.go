package events

import (
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

// Event is a domain notification. Concrete event types live next to the code
// that emits them.
type Event interface {
	Name() string
}

// Meta is embedded by every event to give it an identity and a timestamp.
type Meta struct {
	EventID    uuid.UUID `json:"event_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewMeta() Meta {
	id, err := uuid.NewV4()
	if err != nil {
		log.Error().Err(err).Msg("events: failed to generate event id")
	}
	return Meta{EventID: id, OccurredAt: time.Now().UTC()}
}

type Handler func(Event)

// Bus is an in-process publish/subscribe fan-out. Publish delivers to every
// subscriber synchronously on the publishing goroutine; handlers must not block.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
}

func NewBus() *Bus {
	return &Bus{}
}

func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		h(e)
	}
}
