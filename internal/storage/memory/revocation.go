package memory

import (
	"context"
	"sync"
	"time"
)

// InMemoryRevocationList mirrors the Redis blacklist for tests.
type InMemoryRevocationList struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
}

func NewRevocationList() *InMemoryRevocationList {
	return &InMemoryRevocationList{revoked: make(map[string]time.Time)}
}

func (l *InMemoryRevocationList) RevokeSession(ctx context.Context, selector string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.revoked[selector] = time.Now().Add(ttl)
	return nil
}

func (l *InMemoryRevocationList) IsSessionRevoked(ctx context.Context, selector string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	until, ok := l.revoked[selector]
	if !ok {
		return false, nil
	}
	return time.Now().Before(until), nil
}
