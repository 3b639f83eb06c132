package engine

import (
	"sync"

	"github.com/google/uuid"
)

// PlayerFactory builds the narration and ambiance players for a new session.
type PlayerFactory func() (NarrationControl, AmbianceControl)

// SessionManager owns the live sessions keyed by ID.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	players  PlayerFactory
}

// NewSessionManager creates a manager that builds session players with the
// given factory.
func NewSessionManager(players PlayerFactory) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		players:  players,
	}
}

// Create starts a new session and returns it.
func (m *SessionManager) Create() *Session {
	narration, ambiance := m.players()
	sess := NewSession(uuid.NewString(), narration, ambiance)

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()
	return sess
}

// Get returns the session for the ID.
func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Remove drops a session and stops its playback.
func (m *SessionManager) Remove(id string) {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		sess.Narration.Cancel()
		sess.Ambiance.Stop()
	}
}

// Len reports the number of live sessions.
func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
