package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// Manager owns the durable session slot: one JSON file holding the current
// Session. Every read goes back to disk so a logout performed by another
// process is observed on the next access.
type Manager struct {
	mu   sync.Mutex
	path string
}

// NewManager creates a Manager persisting at path. An empty path selects
// ~/.rtx/session.json.
func NewManager(path string) (*Manager, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(home, ".rtx", "session.json")
	}
	return &Manager{path: path}, nil
}

// Load reads the slot. Missing or corrupt data yields an empty session;
// parse failures are never surfaced to the caller.
func (m *Manager) Load() Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.path)
	if err != nil {
		return Session{}
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Session{}
	}
	return s
}

// Save serializes and persists the session.
func (m *Manager) Save(s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(m.path), 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(m.path, data, 0o600)
}

// Clear removes the slot. Clearing an absent slot is a no-op, so repeated
// calls are safe.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	_ = os.Remove(m.path)
}

// Token returns the persisted token, else the given fallback (the dev token
// in practice). Empty means no credential at all.
func (m *Manager) Token(fallback string) string {
	if s := m.Load(); s.Token != "" {
		return s.Token
	}
	return fallback
}

// IsAuthenticated reports whether a token is currently persisted.
func (m *Manager) IsAuthenticated() bool {
	return m.Load().IsAuthenticated()
}
