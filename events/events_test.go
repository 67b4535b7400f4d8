package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesEverySubscriber(t *testing.T) {
	bus := NewEventBus()
	_, first := bus.Subscribe()
	_, second := bus.Subscribe()
	assert.Equal(t, 2, bus.SubscriberCount())

	bus.Publish(NewBlockAppended(7, "abc"))

	for _, ch := range []<-chan LedgerEvent{first, second} {
		ev := <-ch
		require.Equal(t, EventBlockAppended, ev.Type())
		appended := ev.(*BlockAppended)
		assert.Equal(t, uint64(7), appended.Height())
		assert.Equal(t, "abc", appended.BlockHash())
		assert.False(t, appended.Timestamp().IsZero())
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := NewEventBus()
	id, ch := bus.Subscribe()

	assert.True(t, bus.Unsubscribe(id))
	assert.False(t, bus.Unsubscribe(id))
	assert.Equal(t, 0, bus.SubscriberCount())

	_, open := <-ch
	assert.False(t, open)
}

func TestPublishDropsWhenSubscriberIsFull(t *testing.T) {
	bus := NewEventBus()
	_, ch := bus.Subscribe()

	for i := 0; i < subscriberBuffer+5; i++ {
		bus.Publish(NewBlockAppended(uint64(i), "h"))
	}
	assert.Len(t, ch, subscriberBuffer)
}

func TestChainValidatedEvent(t *testing.T) {
	ev := NewChainValidated(10, 2)

	assert.Equal(t, EventChainValidated, ev.Type())
	assert.Equal(t, uint64(10), ev.ChainLength())
	assert.Equal(t, 2, ev.InvalidCount())
	assert.Empty(t, ev.BlockHash())
}
