package ws

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestHub_PublishWithoutClients(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()
	defer hub.Stop()

	hub.Publish(map[string]interface{}{"type": "stock_update", "action": "IN"})
	assert.Eventually(t, func() bool { return len(hub.Broadcast) == 0 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_PublishDropsWhenFull(t *testing.T) {
	hub := NewHub(zap.NewNop())
	for i := 0; i < cap(hub.Broadcast)+10; i++ {
		hub.Publish(map[string]int{"seq": i})
	}
	assert.Len(t, hub.Broadcast, cap(hub.Broadcast))
}

func TestHub_PublishSkipsUnserialisable(t *testing.T) {
	hub := NewHub(zap.NewNop())
	hub.Publish(make(chan int))
	assert.Len(t, hub.Broadcast, 0)
}

func TestHub_StopIsIdempotent(t *testing.T) {
	hub := NewHub(zap.NewNop())
	done := make(chan struct{})
	go func() {
		hub.Run()
		close(done)
	}()

	hub.Stop()
	hub.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}
}
