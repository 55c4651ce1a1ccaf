package memory

import (
	"context"
	"strings"
	"sync"

	"times-table-circuit/internal/domain"
)

// AccountStore keeps accounts in process memory; they vanish on restart.
type AccountStore struct {
	mu       sync.RWMutex
	accounts map[string]domain.Account
}

func NewAccountStore() *AccountStore {
	return &AccountStore{
		accounts: make(map[string]domain.Account),
	}
}

func (s *AccountStore) FindAccount(_ context.Context, mode domain.Mode, username string) (domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[accountKey(mode, username)]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return account, nil
}

func (s *AccountStore) CreateAccount(_ context.Context, account domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := accountKey(account.Mode, account.Username)
	if _, ok := s.accounts[key]; ok {
		return domain.ErrAccountExists
	}
	s.accounts[key] = account
	return nil
}

func accountKey(mode domain.Mode, username string) string {
	return string(mode) + ":" + strings.ToLower(username)
}
