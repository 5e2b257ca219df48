// Package identity manages API key accounts for the arena server. Keys
// are opaque bearer tokens minted once at registration; only bcrypt
// hashes are kept at rest.
package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// KeyPrefix starts every minted API key.
const KeyPrefix = "sk_"

// ErrAccountExists is returned when an owner_id is already registered.
var ErrAccountExists = errors.New("account already exists")

// ErrInvalidKey is returned when an API key matches no account.
var ErrInvalidKey = errors.New("invalid API key")

// Account is one registered API user. The plaintext key is never
// stored; KeyHash is its bcrypt hash.
type Account struct {
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	KeyHash   string    `json:"key_hash"`
	CreatedAt time.Time `json:"created_at"`
}

// AccountStore persists accounts. Implementations must enforce
// owner_id uniqueness.
type AccountStore interface {
	// Create inserts acct, or returns ErrAccountExists if its OwnerID
	// is taken.
	Create(ctx context.Context, acct Account) error
	// List returns all accounts in registration order.
	List(ctx context.Context) ([]Account, error)
}

// MintKey generates a fresh API key: "sk_" followed by 64 hex characters.
//
// Postcondition: Returns a 67-character key from crypto/rand material.
func MintKey() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("reading key material: %w", err)
	}
	return KeyPrefix + hex.EncodeToString(raw), nil
}

// HashKey creates a bcrypt hash of the given API key.
//
// Postcondition: Returns a bcrypt hash string.
func HashKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckKey compares a plaintext API key against a bcrypt hash.
//
// Postcondition: Returns true if key matches the hash.
func CheckKey(key, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}

// Service registers accounts and resolves API keys to them. Verified
// keys are cached in memory so steady-state requests skip the bcrypt
// scan; the cache is safe because keys are never revoked or reassigned.
type Service struct {
	store AccountStore

	mu       sync.RWMutex
	verified map[string]Account
}

// NewService creates a Service backed by the given store.
//
// Precondition: store must be non-nil.
func NewService(store AccountStore) *Service {
	return &Service{
		store:    store,
		verified: make(map[string]Account),
	}
}

// Register mints a key for a new owner and persists its hash.
//
// Postcondition: Returns the created Account and the plaintext key.
// The key is not recoverable later; callers must surface it now.
// Returns ErrAccountExists if ownerID is already registered.
func (s *Service) Register(ctx context.Context, ownerID, name string) (Account, string, error) {
	if ownerID == "" {
		return Account{}, "", errors.New("owner_id is required")
	}

	key, err := MintKey()
	if err != nil {
		return Account{}, "", err
	}
	hash, err := HashKey(key)
	if err != nil {
		return Account{}, "", fmt.Errorf("hashing key: %w", err)
	}

	acct := Account{
		OwnerID:   ownerID,
		Name:      name,
		KeyHash:   hash,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Create(ctx, acct); err != nil {
		return Account{}, "", err
	}
	return acct, key, nil
}

// Verify resolves a plaintext API key to its account.
//
// Postcondition: Returns the matching Account, or ErrInvalidKey.
func (s *Service) Verify(ctx context.Context, key string) (Account, error) {
	if !strings.HasPrefix(key, KeyPrefix) {
		return Account{}, ErrInvalidKey
	}

	s.mu.RLock()
	acct, ok := s.verified[key]
	s.mu.RUnlock()
	if ok {
		return acct, nil
	}

	accounts, err := s.store.List(ctx)
	if err != nil {
		return Account{}, fmt.Errorf("listing accounts: %w", err)
	}
	for _, candidate := range accounts {
		if CheckKey(key, candidate.KeyHash) {
			s.mu.Lock()
			s.verified[key] = candidate
			s.mu.Unlock()
			return candidate, nil
		}
	}
	return Account{}, ErrInvalidKey
}

// List returns all registered accounts.
func (s *Service) List(ctx context.Context) ([]Account, error) {
	return s.store.List(ctx)
}
