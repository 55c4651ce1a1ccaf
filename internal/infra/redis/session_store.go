package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"times-table-circuit/internal/domain"
)

// SessionStore keeps sessions as JSON strings with a sliding TTL:
//
//	SET ttc:session:{token} {json} EX ttl
//
// Every successful Get refreshes the expiry so active players stay signed in.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Create(ctx context.Context, session domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return s.client.Set(ctx, s.key(session.Token), data, s.ttl).Err()
}

func (s *SessionStore) Get(ctx context.Context, token string) (domain.Session, error) {
	raw, err := s.client.Get(ctx, s.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("get session: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return domain.Session{}, fmt.Errorf("unmarshal session: %w", err)
	}
	if s.ttl > 0 {
		// best-effort refresh
		_ = s.client.Expire(ctx, s.key(token), s.ttl).Err()
	}
	return session, nil
}

func (s *SessionStore) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, s.key(token)).Err()
}

func (s *SessionStore) key(token string) string {
	return "ttc:session:" + token
}
