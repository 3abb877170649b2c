package hub

import (
	"testing"
	"time"
)

// addTestClient registers a bare client with the given send buffer
// size, bypassing the websocket pumps.
func addTestClient(h *Hub, buffer int) *Client {
	c := &Client{hub: h, send: make(chan Message, buffer)}
	h.register <- c
	return c
}

func waitForClients(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if h.ClientCount() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("client count = %d, want %d", h.ClientCount(), want)
}

func TestBroadcastFanOut(t *testing.T) {
	h := New("test")
	go h.Run()
	defer h.Stop()

	a := addTestClient(h, 4)
	b := addTestClient(h, 4)
	waitForClients(t, h, 2)

	h.BroadcastJSON(map[string]string{"hello": "world"})

	for _, c := range []*Client{a, b} {
		select {
		case msg := <-c.send:
			if msg.Type != JSONMessage {
				t.Errorf("message type = %v, want JSON", msg.Type)
			}
		case <-time.After(time.Second):
			t.Fatal("client did not receive broadcast")
		}
	}
}

func TestSlowClientDropped(t *testing.T) {
	h := New("test")
	go h.Run()
	defer h.Stop()

	fast := addTestClient(h, 16)
	addTestClient(h, 1) // fills after one message
	waitForClients(t, h, 2)

	for i := 0; i < 5; i++ {
		h.BroadcastBinary([]byte{byte(i)})
	}
	waitForClients(t, h, 1)

	// The fast client is the survivor and saw every message.
	received := 0
	timeout := time.After(time.Second)
	for received < 5 {
		select {
		case <-fast.send:
			received++
		case <-timeout:
			t.Fatalf("fast client received %d of 5 messages", received)
		}
	}
}

func TestUnregisterOnStop(t *testing.T) {
	h := New("test")
	go h.Run()

	c := addTestClient(h, 4)
	waitForClients(t, h, 1)

	h.Stop()

	// The send channel closes when the hub shuts down.
	select {
	case _, ok := <-c.send:
		if ok {
			t.Error("expected closed send channel")
		}
	case <-time.After(time.Second):
		t.Fatal("send channel not closed on stop")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	h := New("test")
	go h.Run()
	h.Stop()
	h.Stop()
}

func TestOnMessage(t *testing.T) {
	h := New("test")
	got := make(chan []byte, 1)
	h.OnMessage(func(c *Client, data []byte) {
		got <- data
	})
	go h.Run()
	defer h.Stop()

	c := addTestClient(h, 4)
	waitForClients(t, h, 1)

	// Simulate what readPump does with an inbound message.
	h.onMessage(c, []byte("ping"))

	select {
	case data := <-got:
		if string(data) != "ping" {
			t.Errorf("unexpected message %q", data)
		}
	case <-time.After(time.Second):
		t.Fatal("OnMessage not invoked")
	}
}
