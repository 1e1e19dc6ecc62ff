package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

const (
	sessionFileMode = 0o600
	sessionDirMode  = 0o700
)

type fileState struct {
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TenantID     string `json:"tenant_id,omitempty"`
}

// FileStore persists session state to a JSON file so credentials survive
// between CLI invocations. The file is created with owner-only permissions.
type FileStore struct {
	mu    sync.RWMutex
	path  string
	state fileState
}

func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}
	if err := json.Unmarshal(raw, &s.state); err != nil {
		// Corrupt session file means no session; the next login rewrites it.
		s.state = fileState{}
	}
	return s, nil
}

func (s *FileStore) Credentials() (string, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.AccessToken, s.state.RefreshToken
}

func (s *FileStore) SetCredentials(access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.AccessToken = access
	s.state.RefreshToken = refresh
	return s.save()
}

func (s *FileStore) Tenant() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.TenantID
}

func (s *FileStore) SetTenant(tenant string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.TenantID = tenant
	return s.save()
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = fileState{}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

func (s *FileStore) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), sessionDirMode); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	raw, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}
	if err := os.WriteFile(s.path, raw, sessionFileMode); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}
