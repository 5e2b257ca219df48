package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

var _ AccountStore = (*FileStore)(nil)

// FileStore keeps accounts in a single JSON file. The whole account
// list lives in memory and is rewritten atomically on every create, so
// a crash mid-write never corrupts the store.
type FileStore struct {
	path string

	mu       sync.Mutex
	accounts []Account
}

// NewFileStore opens or creates the account store at path.
//
// Postcondition: Returns a FileStore with any existing accounts loaded,
// or a non-nil error if the file exists but cannot be parsed.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("account store: path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating account store directory: %w", err)
		}
	}

	s := &FileStore{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("reading account store: %w", err)
	}
	if err := json.Unmarshal(data, &s.accounts); err != nil {
		return nil, fmt.Errorf("parsing account store: %w", err)
	}
	return s, nil
}

// Create inserts acct and rewrites the backing file.
//
// Postcondition: Returns ErrAccountExists if acct.OwnerID is taken; on
// any persistence failure the in-memory list is left unchanged.
func (s *FileStore) Create(ctx context.Context, acct Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.accounts {
		if existing.OwnerID == acct.OwnerID {
			return ErrAccountExists
		}
	}

	s.accounts = append(s.accounts, acct)
	if err := s.persistLocked(); err != nil {
		s.accounts = s.accounts[:len(s.accounts)-1]
		return err
	}
	return nil
}

// List returns all accounts in registration order.
func (s *FileStore) List(ctx context.Context) ([]Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Account, len(s.accounts))
	copy(out, s.accounts)
	return out, nil
}

func (s *FileStore) persistLocked() error {
	data, err := json.MarshalIndent(s.accounts, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding account store: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("writing account store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming account store: %w", err)
	}
	return nil
}
