package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"bendadvisor/internal/model"
)

const (
	tokenFileName = "token"
	userFileName  = "user.json"
)

// Storage is the persistent side of the client session: one file for the
// token string and one for the serialized user snapshot. The in-memory store
// is a cache of these files; both are always written and cleared together.
type Storage struct {
	dir string
}

func NewStorage(dir string) (*Storage, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("session storage dir is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session storage dir: %w", err)
	}
	return &Storage{dir: dir}, nil
}

// Save persists the token and user snapshot. On a partial failure the token
// file is removed again so storage never holds a token without a user.
func (s *Storage) Save(token string, user model.PublicUser) error {
	if err := os.WriteFile(s.tokenPath(), []byte(token), 0o600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}

	data, err := json.Marshal(user)
	if err != nil {
		_ = os.Remove(s.tokenPath())
		return fmt.Errorf("marshal user snapshot: %w", err)
	}
	if err := os.WriteFile(s.userPath(), data, 0o600); err != nil {
		_ = os.Remove(s.tokenPath())
		return fmt.Errorf("write user snapshot: %w", err)
	}

	return nil
}

// SaveUser overwrites only the snapshot, used after a successful identity
// re-check confirms fresher profile data.
func (s *Storage) SaveUser(user model.PublicUser) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user snapshot: %w", err)
	}
	if err := os.WriteFile(s.userPath(), data, 0o600); err != nil {
		return fmt.Errorf("write user snapshot: %w", err)
	}
	return nil
}

// Load returns the persisted token and snapshot. An absent or unreadable pair
// is reported as no session, not an error: a fresh client starts anonymous.
func (s *Storage) Load() (string, *model.PublicUser, error) {
	raw, err := os.ReadFile(s.tokenPath())
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil, nil
	}
	if err != nil {
		return "", nil, fmt.Errorf("read token: %w", err)
	}

	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", nil, nil
	}

	data, err := os.ReadFile(s.userPath())
	if err != nil {
		return token, nil, nil
	}

	var user model.PublicUser
	if err := json.Unmarshal(data, &user); err != nil {
		return token, nil, nil
	}

	return token, &user, nil
}

// Clear removes both keys. Missing files are fine; Clear is called from any
// state.
func (s *Storage) Clear() error {
	var firstErr error
	for _, path := range []string{s.tokenPath(), s.userPath()} {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			if firstErr == nil {
				firstErr = fmt.Errorf("clear session storage: %w", err)
			}
		}
	}
	return firstErr
}

func (s *Storage) tokenPath() string {
	return filepath.Join(s.dir, tokenFileName)
}

func (s *Storage) userPath() string {
	return filepath.Join(s.dir, userFileName)
}
