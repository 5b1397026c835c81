package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case msg, ok := <-c.Send:
		require.True(t, ok, "send queue closed")
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func requireSilent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case msg := <-c.Send:
		t.Fatalf("unexpected message %q", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_NotifyUserOnlyReachesThatUser(t *testing.T) {
	h := NewHub()
	go h.Run()
	t.Cleanup(h.Stop)

	alice1 := NewClient(nil, "alice")
	alice2 := NewClient(nil, "alice")
	bob := NewClient(nil, "bob")
	h.Register(alice1)
	h.Register(alice2)
	h.Register(bob)

	h.NotifyUser("alice", []byte("hello"))

	require.Equal(t, []byte("hello"), receive(t, alice1))
	require.Equal(t, []byte("hello"), receive(t, alice2))
	requireSilent(t, bob)
}

func TestHub_BroadcastReachesEveryone(t *testing.T) {
	h := NewHub()
	go h.Run()
	t.Cleanup(h.Stop)

	a := NewClient(nil, "alice")
	b := NewClient(nil, "bob")
	h.Register(a)
	h.Register(b)

	h.Broadcast([]byte("all"))

	require.Equal(t, []byte("all"), receive(t, a))
	require.Equal(t, []byte("all"), receive(t, b))
}

func TestHub_UnregisterClosesQueue(t *testing.T) {
	h := NewHub()
	go h.Run()
	t.Cleanup(h.Stop)

	a := NewClient(nil, "alice")
	h.Register(a)
	h.Unregister(a)

	select {
	case _, ok := <-a.Send:
		require.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("send queue not closed")
	}

	// Messages for a user with no connections are dropped quietly.
	h.NotifyUser("alice", []byte("late"))
}

func TestHub_SlowClientIsDropped(t *testing.T) {
	h := NewHub()
	slow := NewClient(nil, "alice")
	h.clients[slow] = true
	h.addSubscription(slow)

	for i := 0; i < sendBufferSize; i++ {
		h.send(slow, []byte("x"))
	}
	require.True(t, h.clients[slow])

	h.send(slow, []byte("overflow"))
	require.False(t, h.clients[slow])
	require.Empty(t, h.subscriptions)

	drained := 0
	for range slow.Send {
		drained++
	}
	require.Equal(t, sendBufferSize, drained)
}

func TestHub_ReplyOnlyToRegisteredClient(t *testing.T) {
	h := NewHub()
	go h.Run()
	t.Cleanup(h.Stop)

	a := NewClient(nil, "alice")
	other := NewClient(nil, "alice")
	h.Register(a)

	h.Reply(a, []byte("pong"))
	require.Equal(t, []byte("pong"), receive(t, a))

	// Not registered: silently dropped rather than written to.
	h.Reply(other, []byte("pong"))
	requireSilent(t, other)
}
