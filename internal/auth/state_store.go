// auth/state_store.go
package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// StateTTL bounds how long an issued state value remains consumable.
// A callback arriving later than this must restart the flow.
const StateTTL = 10 * time.Minute

// RedisStateStore implements StateStore using Redis. States expire via
// key TTL and are consumed with GETDEL so each value is usable once.
type RedisStateStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStateStore creates a new Redis-backed state store
func NewRedisStateStore(client redis.UniversalClient, prefix string) *RedisStateStore {
	return &RedisStateStore{
		client: client,
		prefix: prefix,
	}
}

func (s *RedisStateStore) key(state string) string {
	return fmt.Sprintf("%s:state:%s", s.prefix, state)
}

// SaveState binds a freshly minted state value to a user.
func (s *RedisStateStore) SaveState(ctx context.Context, state, userID string) error {
	if err := s.client.Set(ctx, s.key(state), userID, StateTTL).Err(); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// ConsumeState resolves a state to its user and removes it atomically.
func (s *RedisStateStore) ConsumeState(ctx context.Context, state string) (string, error) {
	userID, err := s.client.GetDel(ctx, s.key(state)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", ErrStateInvalid
		}
		return "", fmt.Errorf("failed to consume state: %w", err)
	}
	return userID, nil
}

// MemoryStateStore is an in-process StateStore used as a fallback when
// Redis is unavailable and as a test double.
type MemoryStateStore struct {
	mu     sync.Mutex
	states map[string]stateEntry
}

type stateEntry struct {
	userID    string
	createdAt time.Time
}

// NewMemoryStateStore creates an empty in-memory state store
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{
		states: make(map[string]stateEntry),
	}
}

// SaveState binds a state value to a user.
func (s *MemoryStateStore) SaveState(ctx context.Context, state, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state] = stateEntry{userID: userID, createdAt: time.Now()}
	return nil
}

// ConsumeState resolves and removes a state in one step.
func (s *MemoryStateStore) ConsumeState(ctx context.Context, state string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.states[state]
	if !ok {
		return "", ErrStateInvalid
	}
	delete(s.states, state)

	if time.Since(entry.createdAt) > StateTTL {
		return "", ErrStateInvalid
	}

	return entry.userID, nil
}
