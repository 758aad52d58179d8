package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwillmer/easynetq/config"
)

var testEndpoint = config.HostConfig{Host: "rabbit1", Port: 5672}

func TestTopicFor(t *testing.T) {
	tests := []struct {
		event any
		topic string
	}{
		{ConnectionCreated{Endpoint: testEndpoint}, TopicConnectionCreated},
		{ConnectionRecovered{Endpoint: testEndpoint}, TopicConnectionRecovered},
		{ConnectionDisconnected{Endpoint: testEndpoint, Reason: "gone"}, TopicConnectionDisconnected},
		{ConnectionBlocked{Reason: "memory"}, TopicConnectionBlocked},
		{ConnectionUnblocked{}, TopicConnectionUnblocked},
		{&ConnectionCreated{}, TopicConnectionCreated},
		{"not an event", ""},
		{nil, ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.topic, TopicFor(tt.event))
	}
}

func TestAsyncBus_PublishReachesSubscriber(t *testing.T) {
	bus := NewAsyncBus()

	var got []ConnectionCreated
	err := bus.Subscribe(TopicConnectionCreated, func(e ConnectionCreated) {
		got = append(got, e)
	})
	require.NoError(t, err)

	bus.Publish(ConnectionCreated{Endpoint: testEndpoint})
	bus.Publish(ConnectionUnblocked{}) // different topic, not delivered

	require.Len(t, got, 1)
	assert.Equal(t, testEndpoint, got[0].Endpoint)
}

func TestAsyncBus_AsyncSubscriber(t *testing.T) {
	bus := NewAsyncBus()

	done := make(chan ConnectionBlocked, 1)
	err := bus.SubscribeAsync(TopicConnectionBlocked, func(e ConnectionBlocked) {
		done <- e
	})
	require.NoError(t, err)

	bus.Publish(ConnectionBlocked{Reason: "memory pressure"})
	bus.Wait()

	e := <-done
	assert.Equal(t, "memory pressure", e.Reason)
}

func TestAsyncBus_UnknownEventDropped(t *testing.T) {
	bus := NewAsyncBus()
	// No panic, no delivery
	bus.Publish(42)
}

func TestAsyncBus_Unsubscribe(t *testing.T) {
	bus := NewAsyncBus()

	calls := 0
	handler := func(ConnectionUnblocked) { calls++ }
	require.NoError(t, bus.Subscribe(TopicConnectionUnblocked, handler))

	bus.Publish(ConnectionUnblocked{})
	require.NoError(t, bus.Unsubscribe(TopicConnectionUnblocked, handler))
	bus.Publish(ConnectionUnblocked{})

	assert.Equal(t, 1, calls)
}

func TestNopBus(t *testing.T) {
	var bus Bus = NopBus{}
	bus.Publish(ConnectionCreated{Endpoint: testEndpoint}) // no-op
}

func TestRecorder(t *testing.T) {
	rec := NewRecorder()

	rec.Publish(ConnectionCreated{Endpoint: testEndpoint})
	rec.Publish(ConnectionBlocked{Reason: "memory"})
	rec.Publish(ConnectionDisconnected{Endpoint: testEndpoint, Reason: "EOF"})

	events := rec.Events()
	require.Len(t, events, 3)
	assert.IsType(t, ConnectionCreated{}, events[0])

	blocked := rec.EventsOf(TopicConnectionBlocked)
	require.Len(t, blocked, 1)
	assert.Equal(t, "memory", blocked[0].(ConnectionBlocked).Reason)
}
