// auth/token_store_fallback.go
package auth

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// FallbackTokenStore layers a local cache over the Redis token store so
// a Redis outage degrades report generation instead of breaking it. The
// health check gates every Redis access; the cache replicates back once
// Redis recovers.
type FallbackTokenStore struct {
	redisStore  *RedisTokenStore
	localCache  map[string]*OAuthToken
	cacheMutex  sync.RWMutex
	healthCheck func() bool
	logger      *zap.Logger
}

// NewFallbackTokenStore creates a token store with Redis and local fallback
func NewFallbackTokenStore(redisStore *RedisTokenStore, healthCheck func() bool, logger *zap.Logger) *FallbackTokenStore {
	return &FallbackTokenStore{
		redisStore:  redisStore,
		localCache:  make(map[string]*OAuthToken),
		healthCheck: healthCheck,
		logger:      logger,
	}
}

// SaveToken stores a token in the local cache and, when healthy, Redis.
func (s *FallbackTokenStore) SaveToken(ctx context.Context, userID string, token *OAuthToken) error {
	s.cacheMutex.Lock()
	s.localCache[userID] = token
	s.cacheMutex.Unlock()

	if s.healthCheck() {
		if err := s.redisStore.SaveToken(ctx, userID, token); err != nil {
			s.logger.Warn("failed to save token to redis, keeping local copy",
				zap.String("user_id", userID), zap.Error(err))
		}
	}

	return nil
}

// GetToken retrieves a token, trying Redis first, falling back to the cache.
func (s *FallbackTokenStore) GetToken(ctx context.Context, userID string) (*OAuthToken, error) {
	if s.healthCheck() {
		token, err := s.redisStore.GetToken(ctx, userID)
		if err == nil {
			s.cacheMutex.Lock()
			s.localCache[userID] = token
			s.cacheMutex.Unlock()
			return token, nil
		}
		if err == ErrNoToken {
			return nil, ErrNoToken
		}
		s.logger.Warn("failed to get token from redis, trying local cache",
			zap.String("user_id", userID), zap.Error(err))
	}

	s.cacheMutex.RLock()
	token, exists := s.localCache[userID]
	s.cacheMutex.RUnlock()

	if exists {
		return token, nil
	}

	return nil, ErrNoToken
}

// DeleteToken removes a token from both stores
func (s *FallbackTokenStore) DeleteToken(ctx context.Context, userID string) error {
	s.cacheMutex.Lock()
	delete(s.localCache, userID)
	s.cacheMutex.Unlock()

	if s.healthCheck() {
		if err := s.redisStore.DeleteToken(ctx, userID); err != nil {
			s.logger.Warn("failed to delete token from redis",
				zap.String("user_id", userID), zap.Error(err))
		}
	}

	return nil
}

// StartReplicationRoutine begins background sync of the local cache to
// Redis. Runs until the context is cancelled.
func (s *FallbackTokenStore) StartReplicationRoutine(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !s.healthCheck() {
					continue
				}

				s.cacheMutex.RLock()
				tokensToReplicate := make(map[string]*OAuthToken, len(s.localCache))
				for id, token := range s.localCache {
					tokensToReplicate[id] = token
				}
				s.cacheMutex.RUnlock()

				for id, token := range tokensToReplicate {
					if err := s.redisStore.SaveToken(ctx, id, token); err != nil {
						s.logger.Warn("token replication failed",
							zap.String("user_id", id), zap.Error(err))
					}
				}
			}
		}
	}()
}
