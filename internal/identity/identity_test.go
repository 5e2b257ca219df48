package identity

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keyPattern = regexp.MustCompile(`^sk_[0-9a-f]{64}$`)

func newTestService(t *testing.T) (*Service, *FileStore) {
	t.Helper()
	store, err := NewFileStore(filepath.Join(t.TempDir(), "accounts.json"))
	require.NoError(t, err)
	return NewService(store), store
}

// TestMintKeyFormat verifies the key shape and that mints do not repeat.
func TestMintKeyFormat(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		key, err := MintKey()
		require.NoError(t, err)
		assert.Regexp(t, keyPattern, key)
		assert.False(t, seen[key], "minted a duplicate key")
		seen[key] = true
	}
}

// TestHashAndCheckKey verifies the bcrypt round trip.
func TestHashAndCheckKey(t *testing.T) {
	key, err := MintKey()
	require.NoError(t, err)

	hash, err := HashKey(key)
	require.NoError(t, err)
	assert.NotEqual(t, key, hash)
	assert.True(t, CheckKey(key, hash))
	assert.False(t, CheckKey("sk_wrong", hash))
}

// TestRegisterMintsWorkingKey verifies that the key returned at
// registration resolves back to its account.
func TestRegisterMintsWorkingKey(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	acct, key, err := svc.Register(ctx, "bot-a", "Bot A")
	require.NoError(t, err)
	assert.Regexp(t, keyPattern, key)
	assert.Equal(t, "bot-a", acct.OwnerID)
	assert.Equal(t, "Bot A", acct.Name)
	assert.NotEqual(t, key, acct.KeyHash)

	resolved, err := svc.Verify(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "bot-a", resolved.OwnerID)
}

// TestRegisterDuplicateOwner verifies the uniqueness constraint.
func TestRegisterDuplicateOwner(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "bot-a", "Bot A")
	require.NoError(t, err)

	_, _, err = svc.Register(ctx, "bot-a", "Someone Else")
	require.ErrorIs(t, err, ErrAccountExists)
}

// TestRegisterRequiresOwnerID verifies the empty owner precondition.
func TestRegisterRequiresOwnerID(t *testing.T) {
	svc, _ := newTestService(t)
	_, _, err := svc.Register(context.Background(), "", "Anon")
	require.Error(t, err)
}

// TestVerifyRejectsUnknownKeys covers malformed and unregistered keys.
func TestVerifyRejectsUnknownKeys(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "bot-a", "Bot A")
	require.NoError(t, err)

	_, err = svc.Verify(ctx, "not-a-key")
	require.ErrorIs(t, err, ErrInvalidKey)

	_, err = svc.Verify(ctx, "sk_"+"0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef")
	require.ErrorIs(t, err, ErrInvalidKey)
}

type errStore struct{}

func (errStore) Create(ctx context.Context, acct Account) error { return errors.New("store down") }
func (errStore) List(ctx context.Context) ([]Account, error)    { return nil, errors.New("store down") }

// TestVerifyCachesResolvedKeys verifies that a key verified once skips
// the store on later lookups.
func TestVerifyCachesResolvedKeys(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, key, err := svc.Register(ctx, "bot-a", "Bot A")
	require.NoError(t, err)

	_, err = svc.Verify(ctx, key)
	require.NoError(t, err)

	// A dead store no longer matters once the key is cached.
	svc.store = errStore{}
	resolved, err := svc.Verify(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "bot-a", resolved.OwnerID)
}

// TestFileStorePersistsAcrossReopen verifies the accounts survive a
// restart.
func TestFileStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.json")
	ctx := context.Background()

	store, err := NewFileStore(path)
	require.NoError(t, err)
	svc := NewService(store)

	_, keyA, err := svc.Register(ctx, "bot-a", "Bot A")
	require.NoError(t, err)
	_, _, err = svc.Register(ctx, "bot-b", "Bot B")
	require.NoError(t, err)

	reopened, err := NewFileStore(path)
	require.NoError(t, err)

	accounts, err := reopened.List(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "bot-a", accounts[0].OwnerID)
	assert.Equal(t, "bot-b", accounts[1].OwnerID)

	resolved, err := NewService(reopened).Verify(ctx, keyA)
	require.NoError(t, err)
	assert.Equal(t, "bot-a", resolved.OwnerID)
}

// TestFileStoreRejectsCorruptFile verifies that unparseable stores are
// reported instead of silently replaced.
func TestFileStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.json")
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0600))

	_, err := NewFileStore(path)
	require.Error(t, err)
}

// TestFileStoreDuplicateLeavesFileUntouched verifies a rejected create
// does not grow the file.
func TestFileStoreDuplicateLeavesFileUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.json")
	ctx := context.Background()

	store, err := NewFileStore(path)
	require.NoError(t, err)

	require.NoError(t, store.Create(ctx, Account{OwnerID: "bot-a", Name: "Bot A", KeyHash: "x"}))
	require.ErrorIs(t, store.Create(ctx, Account{OwnerID: "bot-a", Name: "Again", KeyHash: "y"}), ErrAccountExists)

	accounts, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "Bot A", accounts[0].Name)
}
