package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func newTestClient(hub *WebSocketHub, buffer int) *WebSocketClient {
	return &WebSocketClient{hub: hub, send: make(chan []byte, buffer)}
}

func TestWebSocketHub_AddRemoveClient(t *testing.T) {
	hub := NewWebSocketHub(nil)
	client := newTestClient(hub, 10)

	hub.addClient(client)
	if hub.ClientCount() != 1 {
		t.Errorf("Expected 1 client, got %d", hub.ClientCount())
	}

	hub.removeClient(client)
	hub.removeClient(client) // Should not panic
	if hub.ClientCount() != 0 {
		t.Errorf("Expected 0 clients, got %d", hub.ClientCount())
	}

	select {
	case _, ok := <-client.send:
		if ok {
			t.Error("Channel should be closed")
		}
	default:
		t.Error("Channel should be closed and readable")
	}
}

func TestWebSocketHub_Publish(t *testing.T) {
	hub := NewWebSocketHub(nil)
	client1 := newTestClient(hub, 10)
	client2 := newTestClient(hub, 10)
	hub.addClient(client1)
	hub.addClient(client2)

	hub.Publish(MessagePackOpened, map[string]string{"pack_key": "dmu-draft"})

	for i, client := range []*WebSocketClient{client1, client2} {
		select {
		case msg := <-client.send:
			var received WebSocketMessage
			if err := json.Unmarshal(msg, &received); err != nil {
				t.Fatalf("Failed to unmarshal message: %v", err)
			}
			if received.Type != MessagePackOpened {
				t.Errorf("client %d: Type = %q, want %q", i, received.Type, MessagePackOpened)
			}
		case <-time.After(100 * time.Millisecond):
			t.Errorf("client %d did not receive message", i)
		}
	}
}

func TestWebSocketHub_OnStateChange(t *testing.T) {
	hub := NewWebSocketHub(nil)
	client := newTestClient(hub, 10)
	hub.addClient(client)

	hub.OnStateChange(StateChange{Type: StateChangeWritten, Kind: StateKindWallet, File: "wallet.json"})

	msg := <-client.send
	if !strings.Contains(string(msg), `"type":"state_change"`) || !strings.Contains(string(msg), `"kind":"wallet"`) {
		t.Errorf("unexpected message: %s", msg)
	}
}

func TestWebSocketHub_BroadcastToRemovedClient(t *testing.T) {
	hub := NewWebSocketHub(nil)
	client := newTestClient(hub, 10)
	hub.addClient(client)
	hub.removeClient(client)

	// Must not panic on the closed channel
	hub.broadcast([]byte(`{"test": "data"}`))
	hub.trySend(client, []byte(`test`))
}

func TestWebSocketHub_BroadcastFullBuffer(t *testing.T) {
	hub := NewWebSocketHub(nil)
	client := newTestClient(hub, 1)
	hub.addClient(client)
	client.send <- []byte("first")

	hub.broadcast([]byte("second"))

	if hub.ClientCount() != 0 {
		t.Errorf("Expected client to be removed due to full buffer, got %d clients", hub.ClientCount())
	}
}

func TestWebSocketHub_ServeWS(t *testing.T) {
	hub := NewWebSocketHub(nil)
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var greeting WebSocketMessage
	if err := conn.ReadJSON(&greeting); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if greeting.Type != MessageConnected {
		t.Errorf("first message type = %q, want %q", greeting.Type, MessageConnected)
	}

	hub.Publish(MessageStateChange, StateChange{Kind: StateKindCollection})
	var update WebSocketMessage
	if err := conn.ReadJSON(&update); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if update.Type != MessageStateChange {
		t.Errorf("update type = %q, want %q", update.Type, MessageStateChange)
	}
}
