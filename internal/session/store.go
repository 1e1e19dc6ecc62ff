// Package session owns the credentials and tenant identifier shared by every
// API request. The store is injected into the client rather than living as
// package state so tests can run against isolated instances.
package session

import (
	"sync"
)

// Store holds the access/refresh credential pair and the tenant identifier.
// Implementations must be safe for concurrent use.
type Store interface {
	// Credentials returns the current access and refresh credentials.
	// Either may be empty when no session is established.
	Credentials() (access, refresh string)
	SetCredentials(access, refresh string) error
	Tenant() string
	SetTenant(tenant string) error
	// Clear wipes all session state. Called at logout and on terminal
	// authentication failure.
	Clear() error
}

// MemoryStore keeps session state for the lifetime of the process.
type MemoryStore struct {
	mu      sync.RWMutex
	access  string
	refresh string
	tenant  string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Credentials() (string, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access, s.refresh
}

func (s *MemoryStore) SetCredentials(access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = access
	s.refresh = refresh
	return nil
}

func (s *MemoryStore) Tenant() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tenant
}

func (s *MemoryStore) SetTenant(tenant string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenant = tenant
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = ""
	s.refresh = ""
	s.tenant = ""
	return nil
}
