package realtime

import (
	"sync"

	"github.com/teamflow/teamflow/pkg/logger"
)

// Event is the structured message broadcast to connected clients.
type Event struct {
	Name    string      `json:"event"`
	Payload interface{} `json:"payload,omitempty"`
}

// Presence event names.
const (
	EventUserOnline  = "user:online"
	EventUserOffline = "user:offline"
)

// PresenceStore persists the online/offline flag for a user. The hub
// flips it on the first-connection and last-disconnect transitions.
type PresenceStore interface {
	SetOnline(userID uint, online bool) error
}

// sender is the hub-facing side of a client connection.
type sender interface {
	connID() string
	userID() uint
	enqueue(Event) bool
	shutdown()
}

// Hub owns the connection registry and the per-project rooms. It is
// instantiated by the server and injected into handlers and services;
// tests build isolated hubs per case.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]sender          // connID -> client
	rooms    map[uint]map[string]sender // projectID -> connID -> client
	registry *Registry
	presence PresenceStore
}

func NewHub(presence PresenceStore) *Hub {
	return &Hub{
		clients:  make(map[string]sender),
		rooms:    make(map[uint]map[string]sender),
		registry: NewRegistry(),
		presence: presence,
	}
}

// Registry exposes the hub's connection registry for reads.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Connect registers a client. On the user's first connection the
// persisted presence flips online and a user:online event goes to every
// other user.
func (h *Hub) Connect(c sender) {
	h.mu.Lock()
	h.clients[c.connID()] = c
	h.mu.Unlock()

	first := h.registry.Add(c.userID(), c.connID())
	if !first {
		return
	}

	if h.presence != nil {
		if err := h.presence.SetOnline(c.userID(), true); err != nil {
			logger.Error().Err(err).Uint("user_id", c.userID()).Msg("persist online presence")
		}
	}
	h.BroadcastExcept(c.userID(), Event{Name: EventUserOnline, Payload: map[string]uint{"user_id": c.userID()}})
}

// Disconnect unregisters a client and removes it from every room. On the
// user's last connection the persisted presence flips offline and a
// single user:offline event is broadcast.
func (h *Hub) Disconnect(c sender) {
	h.mu.Lock()
	delete(h.clients, c.connID())
	for _, room := range h.rooms {
		delete(room, c.connID())
	}
	h.mu.Unlock()

	last := h.registry.Remove(c.userID(), c.connID())
	if !last {
		return
	}

	if h.presence != nil {
		if err := h.presence.SetOnline(c.userID(), false); err != nil {
			logger.Error().Err(err).Uint("user_id", c.userID()).Msg("persist offline presence")
		}
	}
	h.BroadcastExcept(c.userID(), Event{Name: EventUserOffline, Payload: map[string]uint{"user_id": c.userID()}})
}

// Join subscribes a connection to the room of the given project.
func (h *Hub) Join(connID string, projectID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[connID]
	if !ok {
		return
	}
	room, ok := h.rooms[projectID]
	if !ok {
		room = make(map[string]sender)
		h.rooms[projectID] = room
	}
	room[connID] = c
}

// Leave unsubscribes a connection from a project room.
func (h *Hub) Leave(connID string, projectID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[projectID]
	if !ok {
		return
	}
	delete(room, connID)
	if len(room) == 0 {
		delete(h.rooms, projectID)
	}
}

// Publish delivers an event to every connection currently joined to the
// project's room. Delivery is at-most-once and best-effort: events for
// slow clients are dropped, the authoritative state is read back on the
// next fetch.
func (h *Hub) Publish(projectID uint, ev Event) {
	h.mu.RLock()
	room := h.rooms[projectID]
	targets := make([]sender, 0, len(room))
	for _, c := range room {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if !c.enqueue(ev) {
			logger.Warn().Str("conn_id", c.connID()).Str("event", ev.Name).Msg("slow client, event dropped")
		}
	}
}

// BroadcastExcept delivers an event to every connection not belonging to
// the excluded user. Used for presence announcements (self excluded).
func (h *Hub) BroadcastExcept(excludeUserID uint, ev Event) {
	h.mu.RLock()
	targets := make([]sender, 0, len(h.clients))
	for _, c := range h.clients {
		if c.userID() == excludeUserID {
			continue
		}
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.enqueue(ev)
	}
}

// ForceDisconnect severs every live connection of the user, used for
// account deactivation and security revocation. The per-connection
// close paths run the normal Disconnect bookkeeping.
func (h *Hub) ForceDisconnect(userID uint) {
	connIDs := h.registry.Connections(userID)

	h.mu.RLock()
	targets := make([]sender, 0, len(connIDs))
	for _, id := range connIDs {
		if c, ok := h.clients[id]; ok {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.shutdown()
	}
}

// RoomSize returns the number of connections joined to a project room.
func (h *Hub) RoomSize(projectID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[projectID])
}
