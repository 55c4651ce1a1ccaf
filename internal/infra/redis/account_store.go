package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"times-table-circuit/internal/domain"
)

// AccountStore keeps one hash per mode, keyed by lower-cased username:
//
//	HSETNX ttc:accounts:{mode} {username} {json}
type AccountStore struct {
	client *redis.Client
}

func NewAccountStore(client *redis.Client) *AccountStore {
	return &AccountStore{client: client}
}

func (s *AccountStore) FindAccount(ctx context.Context, mode domain.Mode, username string) (domain.Account, error) {
	raw, err := s.client.HGet(ctx, s.key(mode), strings.ToLower(username)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	if err != nil {
		return domain.Account{}, fmt.Errorf("get account: %w", err)
	}

	var account domain.Account
	if err := json.Unmarshal(raw, &account); err != nil {
		return domain.Account{}, fmt.Errorf("unmarshal account: %w", err)
	}
	return account, nil
}

func (s *AccountStore) CreateAccount(ctx context.Context, account domain.Account) error {
	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}
	created, err := s.client.HSetNX(ctx, s.key(account.Mode), strings.ToLower(account.Username), data).Result()
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	if !created {
		return domain.ErrAccountExists
	}
	return nil
}

func (s *AccountStore) key(mode domain.Mode) string {
	return "ttc:accounts:" + string(mode)
}
