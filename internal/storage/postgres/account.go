package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/arena/internal/identity"
)

var _ identity.AccountStore = (*AccountRepository)(nil)

// AccountRepository persists identity accounts in the accounts table.
type AccountRepository struct {
	db *pgxpool.Pool
}

// NewAccountRepository creates an AccountRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewAccountRepository(db *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts a new account.
//
// Precondition: acct.OwnerID and acct.KeyHash must be non-empty.
// Postcondition: Returns identity.ErrAccountExists if the owner_id is
// taken.
func (r *AccountRepository) Create(ctx context.Context, acct identity.Account) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO accounts (owner_id, name, key_hash, created_at)
		 VALUES ($1, $2, $3, $4)`,
		acct.OwnerID, acct.Name, acct.KeyHash, acct.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return identity.ErrAccountExists
		}
		return fmt.Errorf("inserting account: %w", err)
	}
	return nil
}

// List returns all accounts in registration order.
func (r *AccountRepository) List(ctx context.Context) ([]identity.Account, error) {
	rows, err := r.db.Query(ctx,
		`SELECT owner_id, name, key_hash, created_at
		 FROM accounts ORDER BY created_at, owner_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	defer rows.Close()

	var accounts []identity.Account
	for rows.Next() {
		var acct identity.Account
		if err := rows.Scan(&acct.OwnerID, &acct.Name, &acct.KeyHash, &acct.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		accounts = append(accounts, acct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating accounts: %w", err)
	}
	return accounts, nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	// pgx wraps PostgreSQL errors; check for SQLSTATE 23505 (unique_violation)
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
