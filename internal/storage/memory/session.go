package memory

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/medisur/hmis-go/internal/models"
	"github.com/medisur/hmis-go/internal/storage"
)

// InMemorySessionManager backs gateway handler tests.
type InMemorySessionManager struct {
	mu       sync.RWMutex
	sessions map[string]models.GatewaySession
	nextID   int64
	log      *zap.SugaredLogger
}

func NewSessionRepository(log *zap.SugaredLogger) *InMemorySessionManager {
	return &InMemorySessionManager{
		sessions: make(map[string]models.GatewaySession),
		log:      log,
	}
}

func (m *InMemorySessionManager) CreateSession(ctx context.Context, session models.GatewaySession) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	session.ID = m.nextID
	m.sessions[session.Selector] = session
	m.log.Debugw("Session created", "selector", session.Selector, "tenant", session.TenantID)

	return session.ID, nil
}

func (m *InMemorySessionManager) FindBySelector(ctx context.Context, selector string) (*models.GatewaySession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[selector]
	if !ok {
		return nil, storage.ErrSessionNotFound
	}
	return &session, nil
}

func (m *InMemorySessionManager) RotateTokens(ctx context.Context, selector, accessToken, refreshToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[selector]
	if !ok {
		return storage.ErrSessionNotFound
	}
	session.AccessToken = accessToken
	session.RefreshToken = refreshToken
	m.sessions[selector] = session
	return nil
}

func (m *InMemorySessionManager) DeleteSession(ctx context.Context, selector string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, selector)
	return nil
}

func (m *InMemorySessionManager) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for selector, session := range m.sessions {
		if session.ExpiresAt.Before(now) {
			delete(m.sessions, selector)
			n++
		}
	}
	return n, nil
}
