package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func mustReceiveMessage(t *testing.T, ch <-chan []byte, timeout time.Duration) []byte {
	t.Helper()
	select {
	case payload := <-ch:
		return payload
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for websocket payload")
		return nil
	}
}

func mustNotReceiveMessage(t *testing.T, ch <-chan []byte, timeout time.Duration) {
	t.Helper()
	select {
	case payload := <-ch:
		t.Fatalf("expected no payload, got %q", string(payload))
	case <-time.After(timeout):
	}
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := NewHub()
	go hub.Run(ctx)
	return hub
}

func TestHubBroadcastFiltersByUser(t *testing.T) {
	hub := startHub(t)

	phone := NewClient(hub, nil, "user-a")
	laptop := NewClient(hub, nil, "user-a")
	other := NewClient(hub, nil, "user-b")

	hub.Register(phone)
	hub.Register(laptop)
	hub.Register(other)

	hub.Broadcast("user-a", []byte("hello"))

	if got := mustReceiveMessage(t, phone.Send, 200*time.Millisecond); string(got) != "hello" {
		t.Fatalf("expected hello for phone, got %q", string(got))
	}
	if got := mustReceiveMessage(t, laptop.Send, 200*time.Millisecond); string(got) != "hello" {
		t.Fatalf("expected hello for laptop, got %q", string(got))
	}
	mustNotReceiveMessage(t, other.Send, 80*time.Millisecond)
}

func TestHubNotificationsReadEvent(t *testing.T) {
	hub := startHub(t)

	client := NewClient(hub, nil, "user-a")
	hub.Register(client)

	if err := hub.NotificationsRead("user-a", NotificationsRead{UnreadCount: 3, IDs: []string{"like_1"}}); err != nil {
		t.Fatalf("NotificationsRead: %v", err)
	}

	raw := mustReceiveMessage(t, client.Send, 200*time.Millisecond)
	var event struct {
		Type MessageType       `json:"type"`
		Data NotificationsRead `json:"data"`
	}
	if err := json.Unmarshal(raw, &event); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if event.Type != MessageNotificationsRead {
		t.Fatalf("expected %s, got %s", MessageNotificationsRead, event.Type)
	}
	if event.Data.UnreadCount != 3 || len(event.Data.IDs) != 1 {
		t.Fatalf("unexpected payload %+v", event.Data)
	}
}

func TestHubUnregisterClosesSend(t *testing.T) {
	hub := startHub(t)

	client := NewClient(hub, nil, "user-a")
	hub.Register(client)
	hub.Unregister(client)

	select {
	case _, ok := <-client.Send:
		if ok {
			t.Fatalf("expected send channel to be closed")
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timed out waiting for send channel to close")
	}
}

func TestHubStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	client := NewClient(hub, nil, "user-a")
	hub.Register(client)
	cancel()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatalf("hub did not stop")
	}

	done := make(chan struct{})
	go func() {
		hub.Broadcast("user-a", []byte("late"))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("broadcast blocked after hub stopped")
	}
}
