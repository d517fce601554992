// Package realtime implements the live-connection layer: a per-process
// connection registry with presence tracking, a room hub that fans
// mutation events out to connections subscribed to a project, and the
// websocket transport with a token handshake.
package realtime

import "sync"

// Registry maps a user to the set of their live connection identifiers.
// A user may hold several concurrent connections (multi-device). The
// registry is process-local and non-durable: it is rebuilt from new
// connection events after a restart and is not a cross-process source
// of truth for presence.
type Registry struct {
	mu    sync.RWMutex
	conns map[uint]map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[uint]map[string]struct{})}
}

// Add records a connection for the user. It reports whether this was
// the user's first live connection (the online transition).
func (r *Registry) Add(userID uint, connID string) (first bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[userID]
	if !ok {
		set = make(map[string]struct{})
		r.conns[userID] = set
	}
	first = len(set) == 0
	set[connID] = struct{}{}
	return first
}

// Remove drops a connection for the user. It reports whether the user
// now has no live connections left (the offline transition). Removing
// an unknown connection is a no-op.
func (r *Registry) Remove(userID uint, connID string) (last bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[userID]
	if !ok {
		return false
	}
	if _, ok := set[connID]; !ok {
		return false
	}
	delete(set, connID)
	if len(set) == 0 {
		delete(r.conns, userID)
		return true
	}
	return false
}

// IsOnline reports whether the user has at least one live connection.
func (r *Registry) IsOnline(userID uint) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns[userID]) > 0
}

// CountOnline returns the number of distinct online users.
func (r *Registry) CountOnline() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// ListOnline returns the IDs of all online users.
func (r *Registry) ListOnline() []uint {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]uint, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	return ids
}

// Connections returns the connection IDs held by the user.
func (r *Registry) Connections(userID uint) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.conns[userID]
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

// Clear removes every connection entry for the user and returns the
// dropped connection IDs. Used by the force-disconnect path.
func (r *Registry) Clear(userID uint) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	set := r.conns[userID]
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	delete(r.conns, userID)
	return ids
}
