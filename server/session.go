package main

import (
	"errors"
	"sync"
	"time"
)

const defaultMaxSessions = 100

// SessionIdleTimeout is how long an empty session survives before it is
// reaped. A var so tests can shorten it.
var SessionIdleTimeout = 30 * time.Second

var errNotInSession = errors.New("not in a session")

// Session represents a game session that players can join
type Session struct {
	ID         string
	Name       string
	Game       *Game
	lastActive time.Time
}

// SessionManager handles creation and lookup of sessions
type SessionManager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	cfg         GameConfig
	maxSessions int
	db          *DB
	analytics   *Analytics
}

// NewSessionManager creates a new SessionManager. db and analytics may be nil.
func NewSessionManager(cfg GameConfig, maxSessions int, db *DB, analytics *Analytics) *SessionManager {
	if maxSessions <= 0 {
		maxSessions = defaultMaxSessions
	}
	return &SessionManager{
		sessions:    make(map[string]*Session),
		cfg:         cfg,
		maxSessions: maxSessions,
		db:          db,
		analytics:   analytics,
	}
}

// CreateSession creates a new game session. Returns nil if limit reached.
func (sm *SessionManager) CreateSession(name string) *Session {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if len(sm.sessions) >= sm.maxSessions {
		return nil
	}

	id := GenerateUUID()
	game := NewGame(sm.cfg)
	game.Persist(id, sm.db, sm.analytics)
	sess := &Session{
		ID:         id,
		Name:       name,
		Game:       game,
		lastActive: time.Now(),
	}
	sm.sessions[id] = sess
	go game.Run()
	sm.analytics.Track(EvtSessionStart, 0, id, "")
	sm.scheduleReap(id)
	return sess
}

// GetSession returns a session by ID
func (sm *SessionManager) GetSession(id string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[id]
}

// MarkActive pushes back the idle deadline of a session
func (sm *SessionManager) MarkActive(id string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sess, ok := sm.sessions[id]; ok {
		sess.lastActive = time.Now()
	}
}

// RemovePlayer removes a player from a session. An emptied session is
// reaped once it has been idle for SessionIdleTimeout.
func (sm *SessionManager) RemovePlayer(sessionID, playerID string) {
	sm.mu.RLock()
	sess, ok := sm.sessions[sessionID]
	sm.mu.RUnlock()
	if !ok {
		return
	}
	sess.Game.RemovePlayer(playerID)

	if sess.Game.PlayerCount() == 0 {
		sm.MarkActive(sessionID)
		sm.scheduleReap(sessionID)
	}
}

func (sm *SessionManager) scheduleReap(id string) {
	time.AfterFunc(SessionIdleTimeout, func() { sm.reapIfIdle(id) })
}

// reapIfIdle stops and deletes a session that is still empty
func (sm *SessionManager) reapIfIdle(id string) {
	sm.mu.Lock()
	sess, ok := sm.sessions[id]
	if !ok || sess.Game.PlayerCount() > 0 || time.Since(sess.lastActive) < SessionIdleTimeout {
		sm.mu.Unlock()
		return
	}
	delete(sm.sessions, id)
	sm.mu.Unlock()

	sess.Game.Stop()
	sm.analytics.Track(EvtSessionEnd, 0, id, "")
}

// Count returns the number of live sessions
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// ListSessions returns info about all active sessions
func (sm *SessionManager) ListSessions() []SessionInfo {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	list := make([]SessionInfo, 0, len(sm.sessions))
	for _, sess := range sm.sessions {
		list = append(list, SessionInfo{
			ID:      sess.ID,
			Name:    sess.Name,
			Players: sess.Game.PlayerCount(),
			Phase:   sess.Game.Phase().String(),
		})
	}
	return list
}

// StopAll halts every game loop, used on shutdown
func (sm *SessionManager) StopAll() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for id, sess := range sm.sessions {
		sess.Game.Stop()
		delete(sm.sessions, id)
	}
}
