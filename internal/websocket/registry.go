// Package websocket provides the realtime core: the connection registry,
// the session manager that feeds it, and the notification dispatcher that
// consults it. Uses github.com/coder/websocket for the transport.
package websocket

import (
	"sort"
	"sync"
)

// Registry is the process-wide table mapping a user identity to its current
// live session. It holds at most one session per user: a reconnect replaces
// the previous entry (last-connect-wins).
//
// The registry is constructed once at startup and injected into the session
// handler and the dispatcher; the map is never exposed directly.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// Register stores s as the current session for userID, replacing any prior
// entry. It returns the replaced session so the caller can close its
// connection, or nil if there was none. Malformed input (empty userID or nil
// session) is ignored.
func (r *Registry) Register(userID string, s *Session) *Session {
	if userID == "" || s == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.sessions[userID]
	r.sessions[userID] = s
	return prev
}

// Unregister removes the mapping for userID only if the stored session is the
// one passed in. This is the guard against a late disconnect of an old
// connection evicting the session a reconnect just registered. Returns true
// if the mapping was removed.
func (r *Registry) Unregister(userID string, s *Session) bool {
	if userID == "" || s == nil {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sessions[userID] != s {
		return false
	}
	delete(r.sessions, userID)
	return true
}

// Lookup returns the current session for userID, if any.
func (r *Registry) Lookup(userID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[userID]
	return s, ok
}

// IsOnline reports whether userID currently holds a live session.
func (r *Registry) IsOnline(userID string) bool {
	_, ok := r.Lookup(userID)
	return ok
}

// OnlineUsers returns the IDs of all registered users, sorted for stable
// presence snapshots.
func (r *Registry) OnlineUsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]string, 0, len(r.sessions))
	for userID := range r.sessions {
		users = append(users, userID)
	}
	sort.Strings(users)
	return users
}

// Sessions returns a snapshot of all registered sessions.
func (r *Registry) Sessions() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
