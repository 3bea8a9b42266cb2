package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

// RedisStore keeps each session as a JSON value whose Redis TTL tracks
// ExpiresAt, so abandoned sessions disappear on their own.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func key(sessionID string) string {
	return keyPrefix + sessionID
}

func encode(s Session) ([]byte, time.Duration, error) {
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return nil, 0, fmt.Errorf("session: expires_at must be in the future")
	}

	data, err := json.Marshal(s)
	if err != nil {
		return nil, 0, fmt.Errorf("session: failed to marshal: %w", err)
	}
	return data, ttl, nil
}

// Create stores a new session. It never overwrites: an id collision
// returns ErrExists.
func (r *RedisStore) Create(ctx context.Context, s Session) error {
	if s.SessionID == "" || s.Identity.UID == "" {
		return fmt.Errorf("session: missing session_id or uid")
	}

	data, ttl, err := encode(s)
	if err != nil {
		return err
	}

	created, err := r.client.SetNX(ctx, key(s.SessionID), data, ttl).Result()
	if err != nil {
		return fmt.Errorf("session: create: %w", err)
	}
	if !created {
		return ErrExists
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	val, err := r.client.Get(ctx, key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session: get: %w", err)
	}

	var s Session
	if err := json.Unmarshal(val, &s); err != nil {
		return nil, fmt.Errorf("session: failed to unmarshal: %w", err)
	}

	return &s, nil
}

// Update rewrites a live session with its new expiry. A session that has
// already expired is deleted; one that is gone stays gone.
func (r *RedisStore) Update(ctx context.Context, s Session) error {
	if s.SessionID == "" {
		return fmt.Errorf("session: missing session_id")
	}

	if !s.ExpiresAt.After(time.Now()) {
		return r.Delete(ctx, s.SessionID)
	}

	data, ttl, err := encode(s)
	if err != nil {
		return err
	}

	updated, err := r.client.SetXX(ctx, key(s.SessionID), data, ttl).Result()
	if err != nil {
		return fmt.Errorf("session: update: %w", err)
	}
	if !updated {
		return ErrNotFound
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, key(sessionID)).Err(); err != nil {
		return fmt.Errorf("session: delete: %w", err)
	}
	return nil
}
