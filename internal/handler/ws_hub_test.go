package handler

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

func newTestConn(sessionID string) *WSConn {
	return &WSConn{
		conn:      nil, // no real connection for hub tests
		sessionID: sessionID,
		send:      make(chan []byte, 256),
	}
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := NewHub()
	c := newTestConn("sess-1")

	hub.Register(c)
	if hub.ConnectionCount() != 1 {
		t.Errorf("expected 1 connection, got %d", hub.ConnectionCount())
	}

	hub.Unregister(c)
	if hub.ConnectionCount() != 0 {
		t.Errorf("expected 0 connections, got %d", hub.ConnectionCount())
	}
}

func TestHubSubscribeUnsubscribe(t *testing.T) {
	hub := NewHub()
	c := newTestConn("sess-1")
	hub.Register(c)
	defer hub.Unregister(c)

	hub.Subscribe(c, 11)
	if hub.TerritorySubscriberCount(11) != 1 {
		t.Errorf("expected 1 subscriber, got %d", hub.TerritorySubscriberCount(11))
	}

	hub.Unsubscribe(c, 11)
	if hub.TerritorySubscriberCount(11) != 0 {
		t.Errorf("expected 0 subscribers, got %d", hub.TerritorySubscriberCount(11))
	}
}

func TestHubBroadcastTerritory(t *testing.T) {
	hub := NewHub()
	c1 := newTestConn("sess-1")
	c2 := newTestConn("sess-2")
	c3 := newTestConn("sess-3") // not subscribed

	hub.Register(c1)
	hub.Register(c2)
	hub.Register(c3)
	defer hub.Unregister(c1)
	defer hub.Unregister(c2)
	defer hub.Unregister(c3)

	hub.Subscribe(c1, 11)
	hub.Subscribe(c2, 11)

	hub.BroadcastTerritory(11, WSEvent{
		Type:        "control_changed",
		TerritoryID: 11,
		Data:        map[string]string{"new_controller_id": "crimson"},
	})

	// c1 and c2 should receive, c3 should not
	select {
	case msg := <-c1.send:
		var event WSEvent
		json.Unmarshal(msg, &event)
		if event.Type != "control_changed" {
			t.Errorf("expected control_changed, got %s", event.Type)
		}
		if event.TerritoryID != 11 {
			t.Errorf("expected territory 11, got %d", event.TerritoryID)
		}
	case <-time.After(time.Second):
		t.Error("c1 did not receive broadcast")
	}

	select {
	case <-c2.send:
		// ok
	case <-time.After(time.Second):
		t.Error("c2 did not receive broadcast")
	}

	select {
	case <-c3.send:
		t.Error("c3 should not have received broadcast")
	default:
		// ok
	}
}

func TestHubWorldFeed(t *testing.T) {
	hub := NewHub()
	c1 := newTestConn("sess-1")
	c2 := newTestConn("sess-2")

	hub.Register(c1)
	hub.Register(c2)
	defer hub.Unregister(c1)
	defer hub.Unregister(c2)

	hub.SubscribeWorld(c1)

	hub.BroadcastWorld(WSEvent{Type: "dominance", Data: map[string]string{"faction_id": "azure"}})

	select {
	case msg := <-c1.send:
		var event WSEvent
		json.Unmarshal(msg, &event)
		if event.Type != "dominance" {
			t.Errorf("expected dominance, got %s", event.Type)
		}
	case <-time.After(time.Second):
		t.Error("world subscriber did not receive broadcast")
	}

	select {
	case <-c2.send:
		t.Error("non-subscriber received world feed broadcast")
	default:
		// ok
	}

	hub.UnsubscribeWorld(c1)
	hub.BroadcastWorld(WSEvent{Type: "dominance"})
	select {
	case <-c1.send:
		t.Error("unsubscribed connection received world feed broadcast")
	default:
		// ok
	}
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	hub := NewHub()
	c := &WSConn{sessionID: "sess-1", send: make(chan []byte, 1)}
	hub.Register(c)
	defer hub.Unregister(c)
	hub.Subscribe(c, 11)

	hub.BroadcastTerritory(11, WSEvent{Type: "control_changed", TerritoryID: 11})
	hub.BroadcastTerritory(11, WSEvent{Type: "contested", TerritoryID: 11})

	// First message occupies the buffer; second is dropped, not blocked.
	if got := len(c.send); got != 1 {
		t.Errorf("expected 1 buffered message, got %d", got)
	}
}

func TestHubUnregisterCleansUpSubscriptions(t *testing.T) {
	hub := NewHub()
	c := newTestConn("sess-1")
	hub.Register(c)
	hub.Subscribe(c, 11)
	hub.Subscribe(c, 21)
	hub.SubscribeWorld(c)

	hub.Unregister(c)

	if hub.TerritorySubscriberCount(11) != 0 {
		t.Errorf("expected 0 subscribers for 11 after unregister")
	}
	if hub.TerritorySubscriberCount(21) != 0 {
		t.Errorf("expected 0 subscribers for 21 after unregister")
	}
}

func TestHubConcurrentAccess(t *testing.T) {
	hub := NewHub()
	var wg sync.WaitGroup

	// Concurrently register, subscribe, broadcast, unregister
	for i := range 50 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			c := newTestConn("sess")
			hub.Register(c)
			hub.Subscribe(c, 11)
			hub.BroadcastTerritory(11, WSEvent{Type: "test", TerritoryID: 11})
			hub.Unsubscribe(c, 11)
			hub.Unregister(c)
		}(i)
	}

	wg.Wait()
	if hub.ConnectionCount() != 0 {
		t.Errorf("expected 0 connections after concurrent test, got %d", hub.ConnectionCount())
	}
}

func TestHubBroadcasterInterface(t *testing.T) {
	hub := NewHub()
	c := newTestConn("sess-1")
	hub.Register(c)
	defer hub.Unregister(c)
	hub.Subscribe(c, 11)

	hub.BroadcastToTerritory(11, "strategic_loss", map[string]string{"faction_id": "crimson"})

	select {
	case msg := <-c.send:
		var event WSEvent
		json.Unmarshal(msg, &event)
		if event.Type != "strategic_loss" {
			t.Errorf("expected strategic_loss, got %s", event.Type)
		}
		if event.TerritoryID != 11 {
			t.Errorf("expected territory 11, got %d", event.TerritoryID)
		}
	case <-time.After(time.Second):
		t.Error("did not receive broadcast")
	}
}

func TestClientMessageSerialization(t *testing.T) {
	msg := ClientMessage{Action: "submit", TerritoryID: 11, FactionID: "crimson", Kind: "capture", Magnitude: 10}
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var parsed ClientMessage
	json.Unmarshal(data, &parsed)
	if parsed.Action != "submit" || parsed.TerritoryID != 11 || parsed.Kind != "capture" {
		t.Errorf("round trip mismatch: %+v", parsed)
	}
}
