package session

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"slideforge-backend/internal/coordinator"
	"slideforge-backend/internal/logger"
)

// Manager owns the live sessions behind the HTTP layer, one per
// project. A session stays resident until closed; closing drops its
// undo history, selection, and clipboard with it.
type Manager struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	coord    *coordinator.Coordinator
	log      *logger.Logger
}

func NewManager(coord *coordinator.Coordinator, log *logger.Logger) *Manager {
	return &Manager{
		sessions: map[uuid.UUID]*Session{},
		coord:    coord,
		log:      log.With("component", "session_manager"),
	}
}

// Open returns the live session for the project, loading a fresh one
// when none exists yet.
func (m *Manager) Open(ctx context.Context, projectID uuid.UUID) (*Session, error) {
	m.mu.Lock()
	if sess, ok := m.sessions[projectID]; ok {
		m.mu.Unlock()
		return sess, nil
	}
	m.mu.Unlock()

	sess := New(projectID, m.coord, m.log)
	if err := sess.Load(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[projectID]; ok {
		// another caller won the race; keep theirs
		return existing, nil
	}
	m.sessions[projectID] = sess
	return sess, nil
}

// Get returns the live session, or ErrNotLoaded when none is open.
func (m *Manager) Get(projectID uuid.UUID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[projectID]
	if !ok {
		return nil, ErrNotLoaded
	}
	return sess, nil
}

// Close drops the session. Unsaved mutations are discarded.
func (m *Manager) Close(projectID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, projectID)
}
