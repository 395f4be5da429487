package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListener_DeliversEventsAsMessages(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listener := NewListener[string](ctx, broker)
	broker.Publish(EntryEvent, "first")
	broker.Publish(EntryEvent, "second")

	msg := listener.Listen()()
	event, ok := msg.(Event[string])
	require.True(t, ok)
	require.Equal(t, "first", event.Payload)

	event = listener.Listen()().(Event[string])
	require.Equal(t, "second", event.Payload)
}

func TestListenCmd_NilAfterCancel(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch := broker.Subscribe(ctx)
	cancel()

	require.Nil(t, ListenCmd(ctx, ch)())
}
