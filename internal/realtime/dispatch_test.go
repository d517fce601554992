package realtime

import (
	"encoding/json"
	"testing"
)

func drainOne(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case ev := <-c.send:
		return ev
	default:
		t.Fatal("expected a reply event")
		return Event{}
	}
}

func TestDispatchAck(t *testing.T) {
	d := NewDispatcher()
	d.Handle("ping", func(c *Client, payload json.RawMessage) (interface{}, error) {
		return "pong", nil
	})

	c := NewClient("a", 1, nil)
	d.Dispatch(c, []byte(`{"event":"ping"}`))

	ev := drainOne(t, c)
	if ev.Name != "ack" {
		t.Errorf("reply event = %q, want ack", ev.Name)
	}
	ack, ok := ev.Payload.(ackPayload)
	if !ok {
		t.Fatalf("payload type %T, want ackPayload", ev.Payload)
	}
	if ack.Event != "ping" || ack.Data != "pong" {
		t.Errorf("ack = %+v, want ping/pong", ack)
	}
}

func TestDispatchUnknownEvent(t *testing.T) {
	d := NewDispatcher()
	c := NewClient("a", 1, nil)
	d.Dispatch(c, []byte(`{"event":"nope"}`))

	ev := drainOne(t, c)
	if ev.Name != "error" {
		t.Errorf("reply event = %q, want error", ev.Name)
	}
}

func TestDispatchMalformedFrame(t *testing.T) {
	d := NewDispatcher()
	c := NewClient("a", 1, nil)
	d.Dispatch(c, []byte(`{not json`))

	ev := drainOne(t, c)
	if ev.Name != "error" {
		t.Errorf("reply event = %q, want error", ev.Name)
	}
}

func TestRoomJoinAuthorization(t *testing.T) {
	hub := NewHub(nil)
	d := NewDispatcher()
	RegisterDefaultHandlers(d, hub, func(userID, projectID uint) bool {
		return userID == 1
	})

	allowed := NewClient("a", 1, nil)
	hub.Connect(allowed)
	d.Dispatch(allowed, []byte(`{"event":"room:join","payload":{"project_id":10}}`))
	if ev := drainOne(t, allowed); ev.Name != "ack" {
		t.Errorf("authorized join reply = %q, want ack", ev.Name)
	}
	if got := hub.RoomSize(10); got != 1 {
		t.Errorf("RoomSize = %d, want 1", got)
	}

	denied := NewClient("b", 2, nil)
	hub.Connect(denied)
	d.Dispatch(denied, []byte(`{"event":"room:join","payload":{"project_id":10}}`))
	if reply := drainOne(t, denied); reply.Name != "error" {
		t.Errorf("unauthorized join reply = %q, want error", reply.Name)
	}
	if got := hub.RoomSize(10); got != 1 {
		t.Errorf("RoomSize = %d after denied join, want 1", got)
	}
}

func TestRoomJoinRequiresProjectID(t *testing.T) {
	hub := NewHub(nil)
	d := NewDispatcher()
	RegisterDefaultHandlers(d, hub, nil)

	c := NewClient("a", 1, nil)
	hub.Connect(c)
	d.Dispatch(c, []byte(`{"event":"room:join","payload":{}}`))
	if ev := drainOne(t, c); ev.Name != "error" {
		t.Errorf("join without project_id reply = %q, want error", ev.Name)
	}
}
