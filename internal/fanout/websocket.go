package fanout

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aprswatch/aprswatch/internal/log"
	"github.com/aprswatch/aprswatch/internal/types"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
)

// Message type tags for the subscription protocol.
const (
	msgSubscribeAll        = "subscribe_all"
	msgUnsubscribeAll      = "unsubscribe_all"
	msgSubscribeCallsign   = "subscribe_callsign"
	msgUnsubscribeCallsign = "unsubscribe_callsign"
	msgSubscribeArea       = "subscribe_area"
	msgUnsubscribeArea     = "unsubscribe_area"
	msgReceivePacket       = "receive_packet"
	msgError               = "error"
)

// clientMessage is a subscribe or unsubscribe request. Area fields are
// pointers so a missing field is distinguishable from zero.
type clientMessage struct {
	Type      string   `json:"type"`
	Callsign  string   `json:"callsign,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Radius    *float64 `json:"radius,omitempty"`
}

type packetMessage struct {
	Type   string          `json:"type"`
	Packet types.PacketDTO `json:"packet"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Packet data is public, so cross-origin browser clients are allowed.
	CheckOrigin: func(*http.Request) bool { return true },
}

type session struct {
	hub  *Hub
	conn *websocket.Conn
	id   string
	send <-chan []byte
}

// ServeWS upgrades an HTTP request to a websocket session and attaches
// it to the hub. The session starts with no subscriptions.
func ServeWS(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("websocket upgrade failed: %v", err)
		return
	}

	id, send := hub.Register()
	s := &session{hub: hub, conn: conn, id: id, send: send}
	log.Debugf("websocket session %v connected from %v", id, r.RemoteAddr)

	go s.writePump()
	go s.readPump()
}

// readPump consumes subscribe/unsubscribe requests until the client
// goes away, then tears the session down.
func (s *session) readPump() {
	defer func() {
		s.hub.Unregister(s.id)
		s.conn.Close()
		log.Debugf("websocket session %v disconnected", s.id)
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debugf("websocket session %v read error: %v", s.id, err)
			}
			return
		}
		s.dispatch(raw)
	}
}

// writePump delivers hub messages and keepalive pings. It exits when
// the subscriber channel closes or a write fails.
func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *session) dispatch(raw []byte) {
	var msg clientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		s.sendError("malformed message")
		return
	}

	var err error
	switch msg.Type {
	case msgSubscribeAll:
		err = s.hub.SubscribeAll(s.id)
	case msgUnsubscribeAll:
		err = s.hub.UnsubscribeAll(s.id)
	case msgSubscribeCallsign:
		err = s.hub.SubscribeCallsign(s.id, msg.Callsign)
	case msgUnsubscribeCallsign:
		err = s.hub.UnsubscribeCallsign(s.id, msg.Callsign)
	case msgSubscribeArea:
		if msg.Latitude == nil || msg.Longitude == nil || msg.Radius == nil {
			err = &types.ValidationError{Field: "area", Reason: "latitude, longitude and radius are required"}
			break
		}
		err = s.hub.SubscribeArea(s.id, *msg.Latitude, *msg.Longitude, *msg.Radius)
	case msgUnsubscribeArea:
		if msg.Latitude == nil || msg.Longitude == nil {
			err = &types.ValidationError{Field: "area", Reason: "latitude and longitude are required"}
			break
		}
		err = s.hub.UnsubscribeArea(s.id, *msg.Latitude, *msg.Longitude)
	default:
		err = fmt.Errorf("unknown message type %q", msg.Type)
	}

	if err != nil {
		s.sendError(err.Error())
	}
}

func (s *session) sendError(message string) {
	payload, err := json.Marshal(errorMessage{Type: msgError, Message: message})
	if err != nil {
		return
	}
	s.hub.push(s.id, payload)
}
