package cache

import (
	"github.com/freelance/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// IdempotencyKeyPrefix namespaces Idempotency-Key entries in redis
const IdempotencyKeyPrefix = "idempotency:"

// NewIdempotencyStore returns a redis store when a client is given and an
// in-memory store otherwise
func NewIdempotencyStore(client redis.UniversalClient, logger *zap.Logger) shared.IdempotencyStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if client != nil {
		logger.Info("using redis idempotency store")
		return NewRedisIdempotencyStore(client, IdempotencyKeyPrefix)
	}
	logger.Warn("redis not configured, idempotency keys are only tracked per process")
	return NewInMemoryIdempotencyStore()
}
