package ws

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(hub *Hub, userID int64, conversationID string) *Client {
	return NewClient(hub, nil, userID, "user", "user@example.com", conversationID)
}

func recvFrame(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case frame := <-c.Send:
		return frame
	case <-time.After(time.Second):
		t.Fatal("no frame received")
		return nil
	}
}

func TestDispatchReachesOnlyRoomMembers(t *testing.T) {
	hub := NewHub()

	a := newTestClient(hub, 1, "conv-a")
	b := newTestClient(hub, 2, "conv-a")
	other := newTestClient(hub, 3, "conv-b")

	hub.Join(a)
	hub.Join(b)
	hub.Join(other)

	hub.Dispatch("conv-a", []byte("hello"))

	require.Equal(t, "hello", string(recvFrame(t, a)))
	require.Equal(t, "hello", string(recvFrame(t, b)))

	select {
	case frame := <-other.Send:
		t.Fatalf("client in another room received frame: %s", frame)
	default:
	}
}

func TestDispatchToEmptyRoomIsNoop(t *testing.T) {
	hub := NewHub()
	hub.Dispatch("conv-without-members", []byte("hello"))
}

func TestLeaveIsIdempotent(t *testing.T) {
	hub := NewHub()

	a := newTestClient(hub, 1, "conv-a")
	hub.Join(a)
	require.Equal(t, 1, hub.RoomSize("conv-a"))

	hub.Leave(a)
	require.Equal(t, 0, hub.RoomSize("conv-a"))

	// Повторный выход ничего не делает и не паникует
	hub.Leave(a)
	require.Equal(t, 0, hub.RoomSize("conv-a"))
}

func TestDispatchAfterLeaveDropsFrame(t *testing.T) {
	hub := NewHub()

	a := newTestClient(hub, 1, "conv-a")
	b := newTestClient(hub, 2, "conv-a")
	hub.Join(a)
	hub.Join(b)

	hub.Leave(a)
	hub.Dispatch("conv-a", []byte("after leave"))

	require.Equal(t, "after leave", string(recvFrame(t, b)))
}

func TestSlowClientDoesNotBlockOthers(t *testing.T) {
	hub := NewHub()

	slow := newTestClient(hub, 1, "conv-a")
	fast := newTestClient(hub, 2, "conv-a")
	hub.Join(slow)
	hub.Join(fast)

	// Переполняем очередь медленного клиента
	for i := 0; i < cap(slow.Send)+10; i++ {
		hub.Dispatch("conv-a", []byte("frame"))
		<-fast.Send
	}

	hub.Dispatch("conv-a", []byte("final"))
	require.Equal(t, "final", string(recvFrame(t, fast)))
}
