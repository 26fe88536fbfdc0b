// Package memory provides a CredentialStore held in process memory, optionally
// seeded from a JSON file. Contents do not survive a restart.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/hanabi-drive/hanabi"
)

// Store keeps credentials in insertion order.
type Store struct {
	mu    sync.RWMutex
	creds []hanabi.Credential
}

// NewStore creates a store holding a copy of seed.
func NewStore(seed []hanabi.Credential) *Store {
	return &Store{creds: slices.Clone(seed)}
}

// Insert appends cred. Duplicate names are kept.
func (s *Store) Insert(ctx context.Context, cred hanabi.Credential) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = append(s.creds, cred)
	return nil
}

// Find returns the first credential matching name and password exactly.
func (s *Store) Find(ctx context.Context, name, password string) (hanabi.Credential, error) {
	if err := ctx.Err(); err != nil {
		return hanabi.Credential{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.creds {
		if c.Name == name && c.Password == password {
			return c, nil
		}
	}
	return hanabi.Credential{}, hanabi.ErrNotFound
}

// List returns every stored name in insertion order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.creds))
	for _, c := range s.creds {
		names = append(names, c.Name)
	}
	return names, nil
}
