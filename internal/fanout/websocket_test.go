package fanout

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type testEnvelope struct {
	Type    string          `json:"type"`
	Message string          `json:"message"`
	Packet  json.RawMessage `json:"packet"`
}

func dialTestHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWS(hub, w, r)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func writeEnvelope(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	if err := conn.WriteJSON(v); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func readEnvelope(t *testing.T, conn *websocket.Conn) testEnvelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env testEnvelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read: %v", err)
	}
	return env
}

// Subscribe requests are handled asynchronously by the session read
// pump, so tests poll for the group to appear before broadcasting.
func waitForGroup(t *testing.T, hub *Hub, group string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		hub.mu.RLock()
		_, ok := hub.groups[group]
		hub.mu.RUnlock()
		if ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("group %q never appeared", group)
}

func TestServeWSDeliversSubscribedPackets(t *testing.T) {
	hub := NewHub()
	conn := dialTestHub(t, hub)

	writeEnvelope(t, conn, map[string]any{"type": "subscribe_callsign", "callsign": "n0call"})
	waitForGroup(t, hub, "callsign:N0CALL")

	hub.BroadcastPacket(testPacket(t, "N0CALL"))

	env := readEnvelope(t, conn)
	if env.Type != msgReceivePacket {
		t.Fatalf("envelope type = %q, want %q", env.Type, msgReceivePacket)
	}
	var dto struct {
		Sender string `json:"sender"`
	}
	if err := json.Unmarshal(env.Packet, &dto); err != nil {
		t.Fatalf("unmarshal packet: %v", err)
	}
	if dto.Sender != "N0CALL" {
		t.Errorf("sender = %q, want N0CALL", dto.Sender)
	}
}

func TestServeWSReportsProtocolErrors(t *testing.T) {
	hub := NewHub()
	conn := dialTestHub(t, hub)

	cases := []struct {
		name string
		send any
	}{
		{"empty callsign", map[string]any{"type": "subscribe_callsign", "callsign": ""}},
		{"unknown type", map[string]any{"type": "dance"}},
		{"area missing radius", map[string]any{"type": "subscribe_area", "latitude": 52.0, "longitude": 21.0}},
		{"area latitude out of range", map[string]any{"type": "subscribe_area", "latitude": 91.0, "longitude": 0.0, "radius": 100.0}},
	}

	for _, c := range cases {
		writeEnvelope(t, conn, c.send)
		env := readEnvelope(t, conn)
		if env.Type != msgError {
			t.Errorf("%s: envelope type = %q, want %q", c.name, env.Type, msgError)
		}
		if env.Message == "" {
			t.Errorf("%s: error envelope carries no message", c.name)
		}
	}
}

func TestServeWSMalformedJSONReportsError(t *testing.T) {
	hub := NewHub()
	conn := dialTestHub(t, hub)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	env := readEnvelope(t, conn)
	if env.Type != msgError || env.Message != "malformed message" {
		t.Fatalf("got %+v, want malformed message error", env)
	}
}

func TestServeWSHubCloseDisconnectsClient(t *testing.T) {
	hub := NewHub()
	conn := dialTestHub(t, hub)

	writeEnvelope(t, conn, map[string]any{"type": "subscribe_all"})
	waitForGroup(t, hub, GroupAll)

	hub.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Fatalf("read after hub close = %v, want normal closure", err)
	}
}
