package realtime

import (
	"sync"
	"testing"
)

// fakeSender records delivered events in place of a socket connection.
type fakeSender struct {
	mu     sync.Mutex
	id     string
	user   uint
	events []Event
	full   bool
	killed bool
}

func (f *fakeSender) connID() string { return f.id }
func (f *fakeSender) userID() uint   { return f.user }

func (f *fakeSender) enqueue(ev Event) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.full {
		return false
	}
	f.events = append(f.events, ev)
	return true
}

func (f *fakeSender) shutdown() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.killed = true
}

func (f *fakeSender) received() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Event, len(f.events))
	copy(out, f.events)
	return out
}

// fakePresence records SetOnline calls.
type fakePresence struct {
	mu    sync.Mutex
	calls []bool
}

func (f *fakePresence) SetOnline(userID uint, online bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, online)
	return nil
}

func TestHubPresenceFlipsOnlyOnTransitions(t *testing.T) {
	presence := &fakePresence{}
	hub := NewHub(presence)

	a1 := &fakeSender{id: "a1", user: 1}
	a2 := &fakeSender{id: "a2", user: 1}
	hub.Connect(a1)
	hub.Connect(a2)
	hub.Disconnect(a1)
	hub.Disconnect(a2)

	want := []bool{true, false}
	presence.mu.Lock()
	defer presence.mu.Unlock()
	if len(presence.calls) != len(want) {
		t.Fatalf("presence flipped %d times, want %d", len(presence.calls), len(want))
	}
	for i, v := range want {
		if presence.calls[i] != v {
			t.Errorf("flip %d = %v, want %v", i, presence.calls[i], v)
		}
	}
}

func TestHubPresenceBroadcastExcludesSelf(t *testing.T) {
	hub := NewHub(nil)

	other := &fakeSender{id: "b1", user: 2}
	hub.Connect(other)

	joiner := &fakeSender{id: "a1", user: 1}
	hub.Connect(joiner)

	var onlineToOther, onlineToSelf int
	for _, ev := range other.received() {
		if ev.Name == EventUserOnline {
			onlineToOther++
		}
	}
	for _, ev := range joiner.received() {
		if ev.Name == EventUserOnline {
			onlineToSelf++
		}
	}
	if onlineToOther != 1 {
		t.Errorf("other user saw %d online events, want 1", onlineToOther)
	}
	if onlineToSelf != 0 {
		t.Errorf("joining user saw %d of their own online events, want 0", onlineToSelf)
	}
}

func TestHubPublishIsRoomScoped(t *testing.T) {
	hub := NewHub(nil)

	inRoom := &fakeSender{id: "a", user: 1}
	outOfRoom := &fakeSender{id: "b", user: 2}
	hub.Connect(inRoom)
	hub.Connect(outOfRoom)
	hub.Join("a", 10)

	hub.Publish(10, Event{Name: "task:created"})

	found := false
	for _, ev := range inRoom.received() {
		if ev.Name == "task:created" {
			found = true
		}
	}
	if !found {
		t.Error("room member should receive the published event")
	}
	for _, ev := range outOfRoom.received() {
		if ev.Name == "task:created" {
			t.Error("non-member should not receive room events")
		}
	}
}

func TestHubLeaveStopsDelivery(t *testing.T) {
	hub := NewHub(nil)
	c := &fakeSender{id: "a", user: 1}
	hub.Connect(c)
	hub.Join("a", 10)
	hub.Leave("a", 10)

	hub.Publish(10, Event{Name: "task:updated"})
	for _, ev := range c.received() {
		if ev.Name == "task:updated" {
			t.Error("left connection should not receive room events")
		}
	}
	if got := hub.RoomSize(10); got != 0 {
		t.Errorf("RoomSize = %d, want 0 after last leave", got)
	}
}

func TestHubPublishDropsSlowClientWithoutBlocking(t *testing.T) {
	hub := NewHub(nil)

	slow := &fakeSender{id: "slow", user: 1, full: true}
	fast := &fakeSender{id: "fast", user: 2}
	hub.Connect(slow)
	hub.Connect(fast)
	hub.Join("slow", 10)
	hub.Join("fast", 10)

	hub.Publish(10, Event{Name: "task:updated"})

	found := false
	for _, ev := range fast.received() {
		if ev.Name == "task:updated" {
			found = true
		}
	}
	if !found {
		t.Error("healthy client should still receive the event")
	}
}

func TestHubDisconnectLeavesRooms(t *testing.T) {
	hub := NewHub(nil)
	c := &fakeSender{id: "a", user: 1}
	hub.Connect(c)
	hub.Join("a", 10)
	hub.Disconnect(c)

	if got := hub.RoomSize(10); got != 0 {
		t.Errorf("RoomSize = %d, want 0 after disconnect", got)
	}
}

func TestHubForceDisconnect(t *testing.T) {
	hub := NewHub(nil)
	c1 := &fakeSender{id: "a", user: 1}
	c2 := &fakeSender{id: "b", user: 1}
	other := &fakeSender{id: "c", user: 2}
	hub.Connect(c1)
	hub.Connect(c2)
	hub.Connect(other)

	hub.ForceDisconnect(1)

	if !c1.killed || !c2.killed {
		t.Error("every connection of the target user should be severed")
	}
	if other.killed {
		t.Error("other users' connections should survive")
	}
}
