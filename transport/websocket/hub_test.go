package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wricardo/mcp-training/memorymatch/game/engine"
	"github.com/wricardo/mcp-training/memorymatch/game/service"
)

func testBoard(moves int) engine.BoardView {
	return engine.BoardView{
		Cards: []engine.CardView{
			{Index: 0, Face: "A", State: engine.Flipped},
			{Index: 1, Face: "?", State: engine.Hidden},
		},
		Columns:    2,
		Moves:      moves,
		TotalPairs: 1,
	}
}

func newClient(hub *Hub, sessionID string) *Client {
	return &Client{
		hub:       hub,
		sessionID: sessionID,
		send:      make(chan []byte, 256),
	}
}

func TestNewHub(t *testing.T) {
	hub := NewHub()

	if hub.sessions == nil {
		t.Error("Hub sessions map is nil")
	}
	if cap(hub.broadcast) != engine.WebSocketBufferSize {
		t.Errorf("Expected buffered broadcast channel, got cap %d", cap(hub.broadcast))
	}
	if hub.register == nil || hub.unregister == nil {
		t.Error("Hub register channels are nil")
	}
}

func TestHubRegisterClient(t *testing.T) {
	hub := NewHub()
	client := newClient(hub, "test-session")

	hub.registerClient(client)

	if !hub.sessions["test-session"][client] {
		t.Error("Client was not registered in session")
	}
	if hub.ClientCount("test-session") != 1 {
		t.Errorf("Expected 1 client in session, got %d", hub.ClientCount("test-session"))
	}
}

func TestHubUnregisterClient(t *testing.T) {
	hub := NewHub()
	client := newClient(hub, "test-session")

	hub.registerClient(client)
	hub.unregisterClient(client)

	if _, exists := hub.sessions["test-session"]; exists {
		t.Error("Session should have been cleaned up after last client unregistered")
	}
	if _, ok := <-client.send; ok {
		t.Error("Expected send channel to be closed")
	}

	// second unregister is a no-op
	hub.unregisterClient(client)
}

func TestHubMultipleClientsInSession(t *testing.T) {
	hub := NewHub()
	sessionID := "multi-client-session"

	client1 := newClient(hub, sessionID)
	client2 := newClient(hub, sessionID)
	hub.registerClient(client1)
	hub.registerClient(client2)

	if hub.ClientCount(sessionID) != 2 {
		t.Errorf("Expected 2 clients in session, got %d", hub.ClientCount(sessionID))
	}

	hub.unregisterClient(client1)

	if hub.ClientCount(sessionID) != 1 {
		t.Errorf("Expected 1 client remaining in session, got %d", hub.ClientCount(sessionID))
	}
	if !hub.sessions[sessionID][client2] {
		t.Error("client2 should still be registered")
	}
}

func TestHubNotify(t *testing.T) {
	hub := NewHub()
	sessionID := "notify-test"

	client := newClient(hub, sessionID)
	other := newClient(hub, "other")
	hub.registerClient(client)
	hub.registerClient(other)

	hub.Notify(service.StateUpdate{
		SessionID: sessionID,
		Event:     "tick",
		GameState: testBoard(3),
	})
	hub.broadcastMessage(<-hub.broadcast)

	select {
	case data := <-client.send:
		var message Message
		if err := json.Unmarshal(data, &message); err != nil {
			t.Fatalf("Failed to unmarshal message: %v", err)
		}
		if message.SessionID != sessionID || message.Event != EventState || message.Trigger != "tick" {
			t.Errorf("Unexpected message header: %+v", message)
		}
		if message.GameState == nil || message.GameState.Moves != 3 {
			t.Error("GameState not correctly transmitted")
		}
		if message.GameState.Cards[1].Face != "?" {
			t.Errorf("Expected hidden card face '?', got %q", message.GameState.Cards[1].Face)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("No message received within timeout")
	}

	select {
	case <-other.send:
		t.Error("Clients of other sessions must not receive the update")
	default:
	}
}

func TestHubNotify_NeverBlocks(t *testing.T) {
	hub := NewHub()
	done := make(chan struct{})
	go func() {
		// Run is not started: the queue fills and later updates are dropped
		for i := 0; i < engine.WebSocketBufferSize+10; i++ {
			hub.Notify(service.StateUpdate{SessionID: "full"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a full queue")
	}
}

func TestHubBroadcast_DropsSlowClient(t *testing.T) {
	hub := NewHub()
	slow := &Client{hub: hub, sessionID: "slow", send: make(chan []byte)}
	hub.registerClient(slow)

	hub.broadcastMessage(&Message{SessionID: "slow", Event: EventState})

	if hub.ClientCount("slow") != 0 {
		t.Error("Expected slow client to be dropped")
	}
}

func TestHubBroadcastEvent(t *testing.T) {
	hub := NewHub()
	hub.BroadcastEvent("event-test", "custom-event", "test-data")

	select {
	case message := <-hub.broadcast:
		if message.SessionID != "event-test" || message.Event != "custom-event" || message.Data != "test-data" {
			t.Errorf("Unexpected broadcast message: %+v", message)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("No broadcast message received within timeout")
	}
}

func startServer(t *testing.T, hub *Hub) (*httptest.Server, func(session string) *websocket.Conn) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		board := testBoard(0)
		hub.ServeWS(w, r, r.URL.Query().Get("session"), &board)
	}))
	t.Cleanup(func() {
		server.Close()
		cancel()
	})

	dial := func(session string) *websocket.Conn {
		wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?session=" + session
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		if err != nil {
			t.Fatalf("Failed to connect to WebSocket: %v", err)
		}
		t.Cleanup(func() { conn.Close() })
		return conn
	}
	return server, dial
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read WebSocket message: %v", err)
	}
	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	return message
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWebSocketLifecycle(t *testing.T) {
	hub := NewHub()
	_, dial := startServer(t, hub)

	conn := dial("ws-test")

	initial := readMessage(t, conn)
	if initial.Event != EventState || initial.GameState == nil {
		t.Fatalf("Expected initial state message, got %+v", initial)
	}
	waitFor(t, func() bool { return hub.ClientCount("ws-test") == 1 })

	hub.Notify(service.StateUpdate{SessionID: "ws-test", Event: "flip", GameState: testBoard(1)})
	message := readMessage(t, conn)
	if message.Trigger != "flip" || message.GameState.Moves != 1 {
		t.Errorf("Unexpected update: %+v", message)
	}

	conn.Close()
	waitFor(t, func() bool { return hub.ClientCount("ws-test") == 0 })
}

func TestWebSocketActions(t *testing.T) {
	hub := NewHub()

	var mu sync.Mutex
	var got []Action
	hub.SetActionHandler(func(ctx context.Context, sessionID string, action Action) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, action)
		if action.Action == "explode" {
			return errors.New("unknown action")
		}
		return nil
	})
	_, dial := startServer(t, hub)

	conn := dial("act")
	readMessage(t, conn) // initial state
	waitFor(t, func() bool { return hub.ClientCount("act") == 1 })

	conn.WriteJSON(Action{Action: "flip", Index: 3})
	conn.WriteJSON(Action{Action: "explode"})

	message := readMessage(t, conn)
	if message.Event != EventError || message.Data != "unknown action" {
		t.Errorf("Expected error event, got %+v", message)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 || got[0].Action != "flip" || got[0].Index != 3 {
		t.Errorf("Unexpected actions: %+v", got)
	}
}
