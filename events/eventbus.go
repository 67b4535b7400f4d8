package events

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/starnotary/notary/logx"
)

const subscriberBuffer = 64

type SubscriberID string

type Subscriber struct {
	ID      SubscriberID
	Channel chan LedgerEvent
}

// EventBus fans ledger events out to subscribers. Publishing never blocks:
// a subscriber whose buffer is full misses the event.
type EventBus struct {
	subscribers map[SubscriberID]*Subscriber
	mu          sync.RWMutex
}

func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[SubscriberID]*Subscriber),
	}
}

func (eb *EventBus) Subscribe() (SubscriberID, <-chan LedgerEvent) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	id := SubscriberID(uuid.Must(uuid.NewV7()).String())
	sub := &Subscriber{
		ID:      id,
		Channel: make(chan LedgerEvent, subscriberBuffer),
	}
	eb.subscribers[id] = sub

	logx.Debug("EVENTBUS", fmt.Sprintf("Subscribed %s, %d subscribers", id, len(eb.subscribers)))
	return id, sub.Channel
}

// Unsubscribe removes the subscriber and closes its channel.
func (eb *EventBus) Unsubscribe(id SubscriberID) bool {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	sub, exists := eb.subscribers[id]
	if !exists {
		return false
	}
	delete(eb.subscribers, id)
	close(sub.Channel)

	logx.Debug("EVENTBUS", fmt.Sprintf("Unsubscribed %s, %d subscribers left", id, len(eb.subscribers)))
	return true
}

func (eb *EventBus) Publish(event LedgerEvent) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	for id, sub := range eb.subscribers {
		select {
		case sub.Channel <- event:
		default:
			logx.Warn("EVENTBUS", fmt.Sprintf("Subscriber %s is full, dropped %s", id, event.Type()))
		}
	}
}

func (eb *EventBus) SubscriberCount() int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	return len(eb.subscribers)
}
