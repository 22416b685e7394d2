// Package fanout routes decoded packets to live subscribers. A
// subscriber joins any mix of groups: the firehose, individual
// callsigns, and 1x1 degree position cells.
package fanout

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/aprswatch/aprswatch/internal/log"
	"github.com/aprswatch/aprswatch/internal/metrics"
	"github.com/aprswatch/aprswatch/internal/types"
	"github.com/google/uuid"
)

// GroupAll receives every packet regardless of sender or position.
const GroupAll = "all_packets"

// sendBuffer is the per-subscriber queue depth. A subscriber that
// falls this far behind loses messages instead of slowing the hub.
const sendBuffer = 64

// Advisory radius bounds for area subscriptions, in kilometers.
const (
	minRadiusKm = 1
	maxRadiusKm = 1000
)

var errHubClosed = errors.New("hub is shut down")

type client struct {
	id     string
	send   chan []byte
	groups map[string]struct{}
}

// Hub is the subscription registry. Broadcasts take the read lock, so
// every subscription that completes before a broadcast dispatch is
// observed by that broadcast.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	groups  map[string]map[string]*client
	closed  bool
}

// NewHub creates an empty subscription registry.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*client),
		groups:  make(map[string]map[string]*client),
	}
}

// Register adds a subscriber and returns its connection id along with
// the channel its messages arrive on. The channel is closed when the
// subscriber is unregistered or the hub shuts down. Registering on a
// closed hub returns an already-closed channel.
func (h *Hub) Register() (string, <-chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c := &client{
		id:     uuid.New().String(),
		send:   make(chan []byte, sendBuffer),
		groups: make(map[string]struct{}),
	}

	if h.closed {
		close(c.send)
		return c.id, c.send
	}

	h.clients[c.id] = c
	metrics.Subscribers.Inc()
	return c.id, c.send
}

// Unregister removes a subscriber from every group and closes its
// channel. Safe to call more than once.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[id]
	if !ok {
		return
	}
	for group := range c.groups {
		h.leaveLocked(c, group)
	}
	delete(h.clients, id)
	close(c.send)
	metrics.Subscribers.Dec()
}

// SubscribeAll joins the firehose group.
func (h *Hub) SubscribeAll(id string) error {
	return h.join(id, GroupAll)
}

// UnsubscribeAll leaves the firehose group.
func (h *Hub) UnsubscribeAll(id string) error {
	return h.leave(id, GroupAll)
}

// SubscribeCallsign joins the group for a single callsign. The
// callsign is normalised to uppercase, so N0CALL and n0call name the
// same group. Subscribing to a base callsign receives every SSID
// variant of it.
func (h *Hub) SubscribeCallsign(id, callsign string) error {
	group, err := callsignGroup(callsign)
	if err != nil {
		return err
	}
	return h.join(id, group)
}

// UnsubscribeCallsign leaves a callsign group.
func (h *Hub) UnsubscribeCallsign(id, callsign string) error {
	group, err := callsignGroup(callsign)
	if err != nil {
		return err
	}
	return h.leave(id, group)
}

// SubscribeArea joins the 1x1 degree cell containing the given point.
// The radius is validated but advisory: routing covers only the cell
// itself.
func (h *Hub) SubscribeArea(id string, lat, lon, radiusKm float64) error {
	if radiusKm < minRadiusKm || radiusKm > maxRadiusKm {
		return &types.ValidationError{Field: "radius", Reason: "must be between 1 and 1000"}
	}
	group, err := areaGroup(lat, lon)
	if err != nil {
		return err
	}
	return h.join(id, group)
}

// UnsubscribeArea leaves the cell containing the given point.
func (h *Hub) UnsubscribeArea(id string, lat, lon float64) error {
	group, err := areaGroup(lat, lon)
	if err != nil {
		return err
	}
	return h.leave(id, group)
}

// BroadcastPacket serialises the packet once and fans it out to every
// matching group. A subscriber joined to more than one matching group
// receives one copy per group. A full subscriber queue drops the
// message for that subscriber only and never blocks the caller.
func (h *Hub) BroadcastPacket(p *types.Packet) {
	payload, err := json.Marshal(packetMessage{Type: msgReceivePacket, Packet: p.DTO()})
	if err != nil {
		log.Errorf("could not serialise packet %d for broadcast: %v", p.ID, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}

	for _, group := range packetGroups(p) {
		for _, c := range h.groups[group] {
			select {
			case c.send <- payload:
				metrics.BroadcastsSent.Inc()
			default:
			}
		}
	}
}

// Close stops the hub. No new subscriptions are accepted and every
// subscriber channel is closed.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, c := range h.clients {
		delete(h.clients, id)
		close(c.send)
		metrics.Subscribers.Dec()
	}
	h.groups = make(map[string]map[string]*client)
}

// push queues a payload for one subscriber, dropping it if the
// subscriber queue is full.
func (h *Hub) push(id string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	c, ok := h.clients[id]
	if !ok {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

func (h *Hub) join(id, group string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return errHubClosed
	}
	c, ok := h.clients[id]
	if !ok {
		return fmt.Errorf("unknown subscriber %q", id)
	}
	if _, joined := c.groups[group]; joined {
		return nil
	}
	c.groups[group] = struct{}{}
	members, ok := h.groups[group]
	if !ok {
		members = make(map[string]*client)
		h.groups[group] = members
	}
	members[c.id] = c
	return nil
}

func (h *Hub) leave(id, group string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[id]
	if !ok {
		return nil
	}
	h.leaveLocked(c, group)
	return nil
}

func (h *Hub) leaveLocked(c *client, group string) {
	delete(c.groups, group)
	if members, ok := h.groups[group]; ok {
		delete(members, c.id)
		if len(members) == 0 {
			delete(h.groups, group)
		}
	}
}

// packetGroups lists the groups a packet routes to: the firehose, the
// sender callsign, the sender base callsign when the SSID is nonzero,
// and the position cell when the packet carries a position.
func packetGroups(p *types.Packet) []string {
	groups := []string{GroupAll, "callsign:" + p.SenderCallsign}
	if p.SenderSSID != 0 {
		groups = append(groups, "callsign:"+p.SenderBase)
	}
	if p.Latitude != nil && p.Longitude != nil {
		groups = append(groups, cellGroup(*p.Latitude, *p.Longitude))
	}
	return groups
}

func callsignGroup(callsign string) (string, error) {
	cs := strings.ToUpper(strings.TrimSpace(callsign))
	if cs == "" {
		return "", &types.ValidationError{Field: "callsign", Reason: "must not be empty"}
	}
	return "callsign:" + cs, nil
}

func areaGroup(lat, lon float64) (string, error) {
	if lat < -90 || lat > 90 {
		return "", &types.ValidationError{Field: "latitude", Reason: "must be between -90 and 90"}
	}
	if lon < -180 || lon > 180 {
		return "", &types.ValidationError{Field: "longitude", Reason: "must be between -180 and 180"}
	}
	return cellGroup(lat, lon), nil
}

func cellGroup(lat, lon float64) string {
	return fmt.Sprintf("area:%d_%d", int(math.Floor(lat)), int(math.Floor(lon)))
}
