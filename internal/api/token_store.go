package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"studynotes-dashboard/internal/models"
)

// Identity is the cached identity a client keeps between runs. It is a
// cache only; the backend stays the source of truth.
type Identity struct {
	AccessToken  string       `json:"access_token,omitempty"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	User         *models.User `json:"user_data,omitempty"`
}

type TokenStore interface {
	Load() (Identity, error)
	Save(Identity) error
	Clear() error
}

type MemoryStore struct {
	mu       sync.Mutex
	identity Identity
}

func (s *MemoryStore) Load() (Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity, nil
}

func (s *MemoryStore) Save(id Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = id
	return nil
}

func (s *MemoryStore) Clear() error {
	return s.Save(Identity{})
}

// FileStore keeps identity in a JSON file readable only by the owner.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// DefaultTokenPath is ~/.config/studynotes/credentials.json.
func DefaultTokenPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "studynotes", "credentials.json"), nil
}

func (s *FileStore) Load() (Identity, error) {
	var id Identity
	b, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return id, nil
	}
	if err != nil {
		return id, err
	}
	if err := json.Unmarshal(b, &id); err != nil {
		return Identity{}, fmt.Errorf("corrupt credentials file %s: %w", s.Path, err)
	}
	return id, nil
}

func (s *FileStore) Save(id Identity) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(id, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.Path)
}

func (s *FileStore) Clear() error {
	err := os.Remove(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
