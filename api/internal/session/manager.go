package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const DefaultTTL = 30 * time.Minute

// Manager keys transient sessions by an opaque id: a fresh uuid for HTTP
// clients, "tg:<chatID>" for the bot. Expired sessions are purged lazily on
// access; nothing survives a restart.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
}

func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

// GetOrCreate returns the session for id, creating it (with a new uuid when
// id is empty).
func (m *Manager) GetOrCreate(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purgeLocked(time.Now())
	if id == "" {
		id = uuid.NewString()
	}
	if s, ok := m.sessions[id]; ok {
		return s
	}
	s := newSession(id)
	m.sessions[id] = s
	return s
}

// Get returns an existing session only.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purgeLocked(time.Now())
	s, ok := m.sessions[id]
	return s, ok
}

// Drop removes a session outright (bot /reset uses Reset instead, HTTP
// clients may abandon ids).
func (m *Manager) Drop(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		s.Reset()
		delete(m.sessions, id)
	}
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) purgeLocked(now time.Time) {
	for id, s := range m.sessions {
		s.mu.Lock()
		stale := now.Sub(s.lastSeen) > m.ttl
		s.mu.Unlock()
		if stale {
			s.Reset()
			delete(m.sessions, id)
		}
	}
}
