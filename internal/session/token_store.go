package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// TokenFile is the name of the persisted token inside the session directory.
const TokenFile = "token"

// TokenStore keeps the single bearer token. Implementations are safe for
// concurrent use.
type TokenStore interface {
	Token() string
	Save(token string) error
	Clear() error
	// ClearIf clears the token only if it still equals token and reports
	// whether it did.
	ClearIf(token string) (bool, error)
}

// MemoryTokenStore holds the token in memory only.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

func NewMemoryTokenStore(token string) *MemoryTokenStore {
	return &MemoryTokenStore{token: token}
}

func (m *MemoryTokenStore) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func (m *MemoryTokenStore) Save(token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *MemoryTokenStore) Clear() error {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
	return nil
}

func (m *MemoryTokenStore) ClearIf(token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if token == "" || m.token != token {
		return false, nil
	}
	m.token = ""
	return true, nil
}

// FileTokenStore persists the token in dir/token with mode 0600. The file is
// read once when the store is opened; afterwards the in-memory copy is
// authoritative and every change is written through.
type FileTokenStore struct {
	mu    sync.Mutex
	path  string
	token string
}

// OpenFileTokenStore creates dir if needed and loads any existing token.
func OpenFileTokenStore(dir string) (*FileTokenStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("session dir: %w", err)
	}
	s := &FileTokenStore{path: filepath.Join(dir, TokenFile)}
	b, err := os.ReadFile(s.path)
	switch {
	case err == nil:
		s.token = strings.TrimSpace(string(b))
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read token: %w", err)
	}
	return s, nil
}

func (s *FileTokenStore) Path() string { return s.path }

func (s *FileTokenStore) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *FileTokenStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeFileAtomic(s.path, []byte(token)); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	s.token = token
	return nil
}

func (s *FileTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearLocked()
}

func (s *FileTokenStore) ClearIf(token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token == "" || s.token != token {
		return false, nil
	}
	return true, s.clearLocked()
}

func (s *FileTokenStore) clearLocked() error {
	s.token = ""
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".token-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
