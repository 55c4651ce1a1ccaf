package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"times-table-circuit/internal/domain"
)

// AccountStore reads and writes the accounts table.
type AccountStore struct {
	pool *pgxpool.Pool
}

func NewAccountStore(pool *pgxpool.Pool) *AccountStore {
	return &AccountStore{pool: pool}
}

func (s *AccountStore) FindAccount(ctx context.Context, mode domain.Mode, username string) (domain.Account, error) {
	var account domain.Account
	var rawMode string
	err := s.pool.QueryRow(ctx,
		`SELECT username, mode, password_hash, created_at FROM accounts WHERE mode=$1 AND lower(username)=lower($2)`,
		string(mode), username,
	).Scan(&account.Username, &rawMode, &account.PasswordHash, &account.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	if err != nil {
		return domain.Account{}, fmt.Errorf("load account: %w", err)
	}
	account.Mode = domain.Mode(rawMode)
	return account, nil
}

func (s *AccountStore) CreateAccount(ctx context.Context, account domain.Account) error {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO accounts (username, mode, password_hash, created_at) VALUES ($1, $2, $3, $4) ON CONFLICT DO NOTHING`,
		account.Username, string(account.Mode), account.PasswordHash, account.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountExists
	}
	return nil
}
