package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/teamflow/teamflow/pkg/logger"
)

// HandlerFunc processes one inbound socket event. The returned value is
// sent back to the originating connection as an ack; a returned error is
// sent as an error event. Handlers never panic the read loop.
type HandlerFunc func(c *Client, payload json.RawMessage) (interface{}, error)

// Dispatcher routes inbound socket events by name through an explicit
// table instead of per-event callbacks.
type Dispatcher struct {
	handlers map[string]HandlerFunc
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]HandlerFunc)}
}

// Handle registers a handler for an event name.
func (d *Dispatcher) Handle(name string, fn HandlerFunc) {
	d.handlers[name] = fn
}

type inboundMessage struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

type ackPayload struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

type errorPayload struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}

// Dispatch parses a raw inbound frame, runs the matching handler and
// replies with an ack or error event on the same connection.
func (d *Dispatcher) Dispatch(c *Client, raw []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.enqueue(Event{Name: "error", Payload: errorPayload{Message: "malformed message"}})
		return
	}

	fn, ok := d.handlers[msg.Event]
	if !ok {
		c.enqueue(Event{Name: "error", Payload: errorPayload{Event: msg.Event, Message: "unknown event"}})
		return
	}

	data, err := fn(c, msg.Payload)
	if err != nil {
		c.enqueue(Event{Name: "error", Payload: errorPayload{Event: msg.Event, Message: err.Error()}})
		return
	}
	c.enqueue(Event{Name: "ack", Payload: ackPayload{Event: msg.Event, Data: data}})
}

// RoomAuthorizer decides whether a user may join a project room.
type RoomAuthorizer func(userID, projectID uint) bool

type roomPayload struct {
	ProjectID uint `json:"project_id"`
}

// RegisterDefaultHandlers wires the built-in socket events: room join,
// room leave and ping.
func RegisterDefaultHandlers(d *Dispatcher, hub *Hub, canJoin RoomAuthorizer) {
	d.Handle("room:join", func(c *Client, payload json.RawMessage) (interface{}, error) {
		var p roomPayload
		if err := json.Unmarshal(payload, &p); err != nil || p.ProjectID == 0 {
			return nil, fmt.Errorf("project_id required")
		}
		if canJoin != nil && !canJoin(c.userID(), p.ProjectID) {
			return nil, fmt.Errorf("access denied")
		}
		hub.Join(c.connID(), p.ProjectID)
		logger.Debug().Uint("user_id", c.userID()).Uint("project_id", p.ProjectID).Msg("room joined")
		return map[string]uint{"project_id": p.ProjectID}, nil
	})

	d.Handle("room:leave", func(c *Client, payload json.RawMessage) (interface{}, error) {
		var p roomPayload
		if err := json.Unmarshal(payload, &p); err != nil || p.ProjectID == 0 {
			return nil, fmt.Errorf("project_id required")
		}
		hub.Leave(c.connID(), p.ProjectID)
		return map[string]uint{"project_id": p.ProjectID}, nil
	})

	d.Handle("ping", func(c *Client, payload json.RawMessage) (interface{}, error) {
		return "pong", nil
	})
}
