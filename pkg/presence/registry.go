package presence

import "sync"

// Registry tracks which users currently hold live connections. It is an
// injected dependency of the delivery layer, never package state. All
// methods are safe for concurrent use.
//
// Presence is advisory and in-memory only: a process restart loses it,
// which is acceptable because clients re-handshake and catch up from
// the persisted notification store.
type Registry struct {
	mu    sync.RWMutex
	users map[string]map[string]struct{} // userID -> set of connection ids
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		users: make(map[string]map[string]struct{}),
	}
}

// Add records a live connection for the user, creating the user's set
// on first connection.
func (r *Registry) Add(userID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.users[userID]
	if !ok {
		set = make(map[string]struct{})
		r.users[userID] = set
	}
	set[connID] = struct{}{}
}

// Remove drops a connection. The user's set is deleted entirely once
// empty so churn leaves no residual entries.
func (r *Registry) Remove(userID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.users[userID]
	if !ok {
		return
	}
	delete(set, connID)
	if len(set) == 0 {
		delete(r.users, userID)
	}
}

// IsConnected reports whether the user has at least one live connection.
func (r *Registry) IsConnected(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users[userID]) > 0
}

// ConnectionCount returns the number of live connections for the user.
func (r *Registry) ConnectionCount(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users[userID])
}

// ConnectedUserCount returns the number of users with at least one live
// connection.
func (r *Registry) ConnectedUserCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

// Connections returns a snapshot of the user's connection ids. The
// returned slice is a copy and safe to iterate while connections churn.
func (r *Registry) Connections(userID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.users[userID]
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}
