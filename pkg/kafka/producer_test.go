package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cartPayload struct {
	ClientID string `json:"client_id"`
	Count    int    `json:"count"`
}

// fakeWriter records messages instead of talking to a broker.
type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewEvent_Fields(t *testing.T) {
	data := cartPayload{ClientID: "c-1", Count: 3}
	event, err := NewEvent("cart.changed", "c-1", "cart", "storefront", data)
	require.NoError(t, err)

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "cart.changed", event.EventType)
	assert.Equal(t, "c-1", event.AggregateID)
	assert.Equal(t, "cart", event.AggregateType)
	assert.Equal(t, "storefront", event.Source)
	assert.Equal(t, 1, event.Version)
	assert.WithinDuration(t, time.Now().UTC(), event.Timestamp, 2*time.Second)

	var decoded cartPayload
	require.NoError(t, json.Unmarshal(event.Data, &decoded))
	assert.Equal(t, data, decoded)
}

func TestNewEvent_InvalidData(t *testing.T) {
	_, err := NewEvent("cart.changed", "c-1", "cart", "storefront", make(chan int))
	require.Error(t, err)
}

func TestProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, nil, testLogger())

	event, err := NewEvent("cart.changed", "client-9", "cart", "storefront", cartPayload{Count: 1})
	require.NoError(t, err)
	event.WithCorrelationID("corr-1")

	require.NoError(t, p.Publish(context.Background(), "storefront.cart.changed", event))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "storefront.cart.changed", msg.Topic)
	assert.Equal(t, "client-9", string(msg.Key))

	carrier := NewHeaderCarrier(&msg.Headers)
	assert.Equal(t, "cart.changed", carrier.Get("event_type"))
	assert.Equal(t, "corr-1", carrier.Get("correlation_id"))

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, event.EventID, decoded.EventID)
	assert.Equal(t, "corr-1", decoded.CorrelationID)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestProducer_PublishError(t *testing.T) {
	p := NewProducerWithWriter(&fakeWriter{err: errors.New("broker down")}, nil, testLogger())
	event, err := NewEvent("auth.changed", "client-9", "session", "storefront", map[string]bool{"authenticated": true})
	require.NoError(t, err)

	err = p.Publish(context.Background(), "storefront.auth.changed", event)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storefront.auth.changed")
}

func TestProducer_PingWithoutBrokers(t *testing.T) {
	p := NewProducerWithWriter(&fakeWriter{}, nil, testLogger())
	assert.Error(t, p.Ping(context.Background()))
}

func TestHeaderCarrier(t *testing.T) {
	headers := []kafka.Header{{Key: "existing", Value: []byte("v1")}}
	c := NewHeaderCarrier(&headers)

	assert.Equal(t, "v1", c.Get("existing"))
	assert.Empty(t, c.Get("missing"))

	c.Set("existing", "v2")
	c.Set("traceparent", "00-abc")
	assert.Equal(t, "v2", c.Get("existing"))
	assert.ElementsMatch(t, []string{"existing", "traceparent"}, c.Keys())
	assert.Len(t, headers, 2)
}

func TestProducer_PublishRejectsMalformedPayload(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, nil, testLogger())

	event := &Event{EventType: "cart.changed", AggregateID: "c-1", Data: json.RawMessage("{")}

	err := p.Publish(context.Background(), "storefront.cart.changed", event)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "marshal cart.changed event")
	assert.Empty(t, w.msgs)
}
