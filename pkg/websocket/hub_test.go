package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHubSendToClient(t *testing.T) {
	h := NewHub()
	c := NewClient("conn-1", nil)
	h.Register(c)

	assert.True(t, h.SendToClient("conn-1", []byte("hello")))
	assert.Equal(t, []byte("hello"), <-c.Send)
	assert.False(t, h.SendToClient("conn-2", []byte("nobody")))
}

func TestHubSendDropsWhenBufferFull(t *testing.T) {
	h := NewHub()
	c := NewClient("conn-1", nil)
	h.Register(c)

	for i := 0; i < sendBuffer; i++ {
		assert.True(t, h.SendToClient("conn-1", []byte("x")))
	}
	assert.False(t, h.SendToClient("conn-1", []byte("overflow")))
}

func TestHubUnregisterClosesOnce(t *testing.T) {
	h := NewHub()
	c := NewClient("conn-1", nil)
	h.Register(c)

	h.Unregister(c)
	h.Unregister(c)
	_, open := <-c.Send
	assert.False(t, open)
	assert.Equal(t, 0, h.Len())
	assert.False(t, h.SendToClient("conn-1", []byte("late")))
}

func TestHubBroadcast(t *testing.T) {
	h := NewHub()
	a, b := NewClient("a", nil), NewClient("b", nil)
	h.Register(a)
	h.Register(b)

	assert.Equal(t, 2, h.Broadcast([]byte("all")))
	assert.Equal(t, []byte("all"), <-a.Send)
	assert.Equal(t, []byte("all"), <-b.Send)
}
