/**
 * @description
 * Server-side session storage. Values are scoped per client session and
 * expire with the TTL supplied on write; the auth service uses this both for
 * fully authenticated sessions and for the short-lived pending-2FA marker.
 */
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a session key is absent or has expired.
var ErrNotFound = errors.New("session key not found")

// Store is the per-session key-value contract consumed by the auth service.
type Store interface {
	Set(ctx context.Context, sessionID, key, value string, ttl time.Duration) error
	Get(ctx context.Context, sessionID, key string) (string, error)
	Delete(ctx context.Context, sessionID, key string) error
}

// RedisStore implements Store on top of Redis so sessions survive service
// restarts and are shared across replicas.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	trimmedPrefix := strings.TrimSpace(prefix)
	if trimmedPrefix == "" {
		trimmedPrefix = "secsys:session"
	}
	trimmedPrefix = strings.TrimSuffix(trimmedPrefix, ":")

	return &RedisStore{
		client: client,
		prefix: trimmedPrefix,
	}
}

func (s *RedisStore) storageKey(sessionID, key string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, sessionID, key)
}

// Set writes a session value with the given TTL.
func (s *RedisStore) Set(ctx context.Context, sessionID, key, value string, ttl time.Duration) error {
	return s.client.Set(ctx, s.storageKey(sessionID, key), value, ttl).Err()
}

// Get reads a session value, returning ErrNotFound for missing or expired keys.
func (s *RedisStore) Get(ctx context.Context, sessionID, key string) (string, error) {
	value, err := s.client.Get(ctx, s.storageKey(sessionID, key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

// Delete removes a session value. Deleting an absent key is not an error.
func (s *RedisStore) Delete(ctx context.Context, sessionID, key string) error {
	return s.client.Del(ctx, s.storageKey(sessionID, key)).Err()
}
