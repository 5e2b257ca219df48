package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Session tracks one connected websocket client watching a game.
type Session struct {
	// ID is the unique session identifier, fresh per connection.
	ID string
	// GameID is the game this session is subscribed to.
	GameID string
	// OwnerID is the authenticated account the connection belongs to.
	OwnerID string
	// CharacterID is the owner's character in the game at connect time.
	CharacterID string
	// Outbox is the event buffer drained by the connection's writer.
	Outbox *Outbox
}

// Manager tracks all active sessions and per-game membership.
// All methods are safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session        // session ID → session
	gameSets map[string]map[string]bool // game ID → set of session IDs
}

// NewManager creates an empty session Manager.
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		gameSets: make(map[string]map[string]bool),
	}
}

// Attach registers a new session for the given game. The same owner may
// attach more than once; every connection gets its own session and
// outbox.
//
// Postcondition: Returns a Session with a fresh ID and an open Outbox.
func (m *Manager) Attach(gameID, ownerID, characterID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.NewString()
	sess := &Session{
		ID:          id,
		GameID:      gameID,
		OwnerID:     ownerID,
		CharacterID: characterID,
		Outbox:      NewOutbox(id, 64),
	}

	m.sessions[id] = sess
	if m.gameSets[gameID] == nil {
		m.gameSets[gameID] = make(map[string]bool)
	}
	m.gameSets[gameID][id] = true

	return sess
}

// Detach removes a session and closes its outbox.
//
// Postcondition: The session is removed from all tracking. Returns an
// error if not found.
func (m *Manager) Detach(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, exists := m.sessions[sessionID]
	if !exists {
		return fmt.Errorf("session %q not found", sessionID)
	}

	if set, ok := m.gameSets[sess.GameID]; ok {
		delete(set, sessionID)
		if len(set) == 0 {
			delete(m.gameSets, sess.GameID)
		}
	}

	_ = sess.Outbox.Close()

	delete(m.sessions, sessionID)
	return nil
}

// Broadcast pushes data to every session subscribed to the game. A
// session whose outbox is closed or full misses the event; its ID is
// returned so the caller can detach it and log.
//
// Postcondition: Returns the number of sessions that received the event
// and the IDs of those that did not.
func (m *Manager) Broadcast(gameID string, data []byte) (int, []string) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set, ok := m.gameSets[gameID]
	if !ok {
		return 0, nil
	}

	sent := 0
	var dropped []string
	for id := range set {
		sess, ok := m.sessions[id]
		if !ok {
			continue
		}
		if err := sess.Outbox.Push(data); err != nil {
			dropped = append(dropped, id)
			continue
		}
		sent++
	}
	return sent, dropped
}

// GetSession returns the session for the given ID.
//
// Postcondition: Returns (session, true) if found, or (nil, false)
// otherwise.
func (m *Manager) GetSession(sessionID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[sessionID]
	return sess, ok
}

// SessionsInGame returns the IDs of all sessions subscribed to the game.
//
// Postcondition: Returns a slice of session IDs (may be empty).
func (m *Manager) SessionsInGame(gameID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set, ok := m.gameSets[gameID]
	if !ok {
		return nil
	}

	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

// SessionCount returns the total number of attached sessions.
func (m *Manager) SessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
