package client

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// SessionState is the persisted part of a session.
type SessionState struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	IsAdmin      bool      `json:"is_admin"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Session holds the credentials of one signed in operator. A Client owns
// exactly one; Login replaces its contents and Logout clears them.
type Session struct {
	mu    sync.RWMutex
	state SessionState
}

func NewSession() *Session { return &Session{} }

// State returns a copy of the current credentials.
func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.AccessToken != ""
}

// IsAdmin reports the admin capability fetched at the last sign in or refresh.
func (s *Session) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.IsAdmin
}

func (s *Session) accessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.AccessToken
}

func (s *Session) refreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.RefreshToken
}

func (s *Session) replace(state SessionState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Session) update(fn func(*SessionState)) SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
	return s.state
}

// Clear forgets every credential.
func (s *Session) Clear() {
	s.replace(SessionState{})
}

// SessionStore keeps a session across process restarts.
type SessionStore interface {
	Load() (*SessionState, error)
	Save(state SessionState) error
	Clear() error
}

// FileStore saves the session as JSON in a file only the owner can read.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore { return &FileStore{path: path} }

// Load returns nil without error when nothing was saved yet.
func (f *FileStore) Load() (*SessionState, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var state SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (f *FileStore) Save(state SessionState) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, data, 0o600)
}

func (f *FileStore) Clear() error {
	err := os.Remove(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
