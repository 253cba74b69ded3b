package signal

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_DeliversInOrder(t *testing.T) {
	b := NewBus()
	var got []string

	b.Subscribe(func(_ context.Context, e Event) { got = append(got, "first:"+e.Kind()) })
	b.Subscribe(func(_ context.Context, e Event) { got = append(got, "second:"+e.Kind()) })

	b.Publish(context.Background(), CartChanged{ClientID: "a", Count: 1, Total: decimal.NewFromInt(10)})
	b.Publish(context.Background(), AuthChanged{ClientID: "a", Authenticated: true})

	assert.Equal(t, []string{"first:cart", "second:cart", "first:auth", "second:auth"}, got)
}

func TestBus_Unsubscribe(t *testing.T) {
	b := NewBus()
	calls := 0
	unsubscribe := b.Subscribe(func(context.Context, Event) { calls++ })

	b.Publish(context.Background(), AuthChanged{ClientID: "a"})
	unsubscribe()
	unsubscribe()
	b.Publish(context.Background(), AuthChanged{ClientID: "a"})

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, b.Subscribers())
}

func TestBus_StreamIsScopedToClient(t *testing.T) {
	b := NewBus()
	events, cancel := b.Stream("a", 4)
	defer cancel()

	b.Publish(context.Background(), CartChanged{ClientID: "b", Count: 9})
	b.Publish(context.Background(), CartChanged{ClientID: "a", Count: 2})

	require.Len(t, events, 1)
	e := <-events
	assert.Equal(t, CartChanged{ClientID: "a", Count: 2}, e)
}

func TestBus_StreamDropsOnOverflow(t *testing.T) {
	b := NewBus()
	events, cancel := b.Stream("a", 1)

	b.Publish(context.Background(), CartChanged{ClientID: "a", Count: 1})
	b.Publish(context.Background(), CartChanged{ClientID: "a", Count: 2})

	assert.Len(t, events, 1)
	assert.Equal(t, 1, (<-events).(CartChanged).Count)

	cancel()
	cancel()
	_, open := <-events
	assert.False(t, open)

	assert.NotPanics(t, func() {
		b.Publish(context.Background(), CartChanged{ClientID: "a", Count: 3})
	})
}
