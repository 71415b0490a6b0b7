package fingerprints

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "refresh_fp:"

// KEYS[1] old key, KEYS[2] new key, ARGV[1] ttl in milliseconds.
const swapScript = `
local owner = redis.call("GET", KEYS[1])
if not owner then
  return 0
end
redis.call("DEL", KEYS[1])
redis.call("SET", KEYS[2], owner, "PX", ARGV[1])
return 1
`

var swapLua = redis.NewScript(swapScript)

// RedisRepository keeps each fingerprint as its own key holding the owner
// id. Keys expire together with the refresh token they stand for.
type RedisRepository struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

func NewRedisRepository(rdb redis.UniversalClient, ttl time.Duration) *RedisRepository {
	return &RedisRepository{rdb: rdb, ttl: ttl}
}

func key(fingerprint string) string {
	return keyPrefix + fingerprint
}

func (r *RedisRepository) Create(ctx context.Context, userID int64, fingerprint string) error {
	if err := r.rdb.Set(ctx, key(fingerprint), userID, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (r *RedisRepository) Find(ctx context.Context, fingerprint string) (*models.RefreshFingerprint, error) {
	v, err := r.rdb.Get(ctx, key(fingerprint)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("redis error: %w", err)
	}

	userID, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("redis error: corrupt owner %q: %w", v, err)
	}

	return &models.RefreshFingerprint{UserID: userID, Fingerprint: fingerprint}, nil
}

func (r *RedisRepository) CompareAndSwap(ctx context.Context, oldFP, newFP string) (int64, error) {
	n, err := swapLua.Run(ctx, r.rdb, []string{key(oldFP), key(newFP)}, r.ttl.Milliseconds()).Int64()
	if err != nil {
		return 0, fmt.Errorf("redis error: %w", err)
	}
	return n, nil
}
