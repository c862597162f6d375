package realtime

import (
	"sync"

	"github.com/google/uuid"
)

// Envelope is the named-event frame pushed to clients.
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// JSONWriter is the part of a websocket connection the hub needs. Satisfied
// by *websocket.Conn.
type JSONWriter interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Session is one live connection. A user may hold several sessions at once
// (multi-device, multi-tab); each gets its own handle. Writes are serialized
// per session because the hub pushes from many goroutines.
type Session struct {
	ID string

	mu   sync.Mutex
	conn JSONWriter

	// guarded by the owning hub's mutex
	userID string
	groups map[string]struct{}
}

// NewSession wraps a connection in a session with a fresh handle.
func NewSession(conn JSONWriter) *Session {
	return &Session{
		ID:     uuid.NewString(),
		conn:   conn,
		groups: make(map[string]struct{}),
	}
}

// UserID returns the user bound to the session, empty until authenticated.
func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

func (s *Session) push(event string, data interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(Envelope{Event: event, Data: data})
}

// Hub is the presence registry: it maps user ids to their live sessions and
// group keys to subscribed sessions, and routes outbound pushes. It is
// constructed once at startup and passed to collaborators; delivery is
// fire-and-forget, a failed write closes the offending connection.
type Hub struct {
	mu     sync.RWMutex
	users  map[string]map[*Session]struct{}
	groups map[string]map[*Session]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		users:  make(map[string]map[*Session]struct{}),
		groups: make(map[string]map[*Session]struct{}),
	}
}

// Register binds a session to a user. Re-registering moves the session to
// the new user.
func (h *Hub) Register(userID string, s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if s.userID != "" && s.userID != userID {
		h.removeUserLocked(s)
	}
	s.mu.Lock()
	s.userID = userID
	s.mu.Unlock()

	if h.users[userID] == nil {
		h.users[userID] = make(map[*Session]struct{})
	}
	h.users[userID][s] = struct{}{}
}

// Deregister drops the session's user binding and every group membership.
// Terminal for the session.
func (h *Hub) Deregister(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeUserLocked(s)
	for key := range s.groups {
		h.removeFromGroupLocked(s, key)
	}
}

func (h *Hub) removeUserLocked(s *Session) {
	s.mu.Lock()
	uid := s.userID
	s.userID = ""
	s.mu.Unlock()
	if uid == "" {
		return
	}
	if sessions, ok := h.users[uid]; ok {
		delete(sessions, s)
		if len(sessions) == 0 {
			delete(h.users, uid)
		}
	}
}

func (h *Hub) removeFromGroupLocked(s *Session, key string) {
	delete(s.groups, key)
	if sessions, ok := h.groups[key]; ok {
		delete(sessions, s)
		if len(sessions) == 0 {
			delete(h.groups, key)
		}
	}
}

// JoinGroup subscribes the session to a group key, e.g. "timeline:<id>".
func (h *Hub) JoinGroup(s *Session, key string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.groups[key] == nil {
		h.groups[key] = make(map[*Session]struct{})
	}
	h.groups[key][s] = struct{}{}
	s.groups[key] = struct{}{}
}

// LeaveGroup unsubscribes the session from a group key.
func (h *Hub) LeaveGroup(s *Session, key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromGroupLocked(s, key)
}

// IsOnline reports whether the user has at least one live session.
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID]) > 0
}

// SendToUser pushes a named event to every session of the user. A user with
// no sessions is a silent no-op, never an error.
func (h *Hub) SendToUser(userID, event string, data interface{}) {
	h.mu.RLock()
	sessions := make([]*Session, 0, len(h.users[userID]))
	for s := range h.users[userID] {
		sessions = append(sessions, s)
	}
	h.mu.RUnlock()

	h.pushAll(sessions, event, data)
}

// Broadcast pushes a named event to every session joined to the group.
func (h *Hub) Broadcast(groupKey, event string, data interface{}) {
	h.mu.RLock()
	sessions := make([]*Session, 0, len(h.groups[groupKey]))
	for s := range h.groups[groupKey] {
		sessions = append(sessions, s)
	}
	h.mu.RUnlock()

	h.pushAll(sessions, event, data)
}

func (h *Hub) pushAll(sessions []*Session, event string, data interface{}) {
	for _, s := range sessions {
		if err := s.push(event, data); err != nil {
			s.conn.Close()
			h.Deregister(s)
		}
	}
}
