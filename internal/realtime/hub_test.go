package realtime_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitlabs/orbit-server/internal/realtime"
)

func TestHub_BroadcastReachesOnlyConversationSubscribers(t *testing.T) {
	hub := realtime.NewHub()

	pairCh, pairCleanup := hub.Subscribe("pair:abc")
	defer pairCleanup()
	roomCh, roomCleanup := hub.Subscribe("room:xyz")
	defer roomCleanup()

	hub.Broadcast(realtime.Event{ID: "m1", Conversation: "pair:abc", Body: "hi"})

	select {
	case ev := <-pairCh:
		assert.Equal(t, "m1", ev.ID)
	case <-time.After(time.Second):
		t.Fatal("pair subscriber did not receive event")
	}

	select {
	case ev := <-roomCh:
		t.Fatalf("room subscriber received foreign event: %+v", ev)
	default:
	}
}

func TestHub_CleanupClosesChannel(t *testing.T) {
	hub := realtime.NewHub()

	ch, cleanup := hub.Subscribe("room:xyz")
	require.Equal(t, 1, hub.SubscriberCount("room:xyz"))

	cleanup()
	assert.Equal(t, 0, hub.SubscriberCount("room:xyz"))

	_, open := <-ch
	assert.False(t, open)

	// double cleanup is a no-op
	cleanup()
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	hub := realtime.NewHub()

	_, cleanup := hub.Subscribe("pair:slow")
	defer cleanup()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			hub.Broadcast(realtime.Event{Conversation: "pair:slow"})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a full subscriber buffer")
	}
}
