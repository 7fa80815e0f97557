// Package revocation tracks revoked token ids so logout takes effect before
// token expiry. Entries expire with the tokens they block, keeping the set
// bounded.
package revocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a revocation store. ttl should match the token
// lifetime; a revoked jti only needs blocking until its token would have
// expired anyway.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func key(jti string) string {
	return "revoked:" + jti
}

// Revoke marks a token id as revoked.
func (s *RedisStore) Revoke(ctx context.Context, jti string) error {
	if err := s.client.Set(ctx, key(jti), "1", s.ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsTokenRevoked reports whether the token id has been revoked.
func (s *RedisStore) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	err := s.client.Get(ctx, key(jti)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check token revocation: %w", err)
	}
	return true, nil
}
