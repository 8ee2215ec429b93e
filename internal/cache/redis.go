package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/segyhp/emi-ledger/internal/domain"
	customError "github.com/segyhp/emi-ledger/pkg/errors"
)

const (
	scheduleKeyPrefix = "schedule:"
	versionKeyPrefix  = "schedule_version:"
	lockKeyPrefix     = "lock:"
)

// setIfVersionScript writes the schedule only if the version key still holds ARGV[1].
// A missing version key counts as 0.
var setIfVersionScript = redis.NewScript(`
local current = redis.call("GET", KEYS[1]) or "0"
if current ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[2], ARGV[2], "PX", ARGV[3])
return 1
`)

// releaseScript deletes the lock only if it still carries our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisCache provides schedule caching and payment locks on top of redis
type RedisCache struct {
	client      *redis.Client
	scheduleTTL time.Duration
	lockTTL     time.Duration
}

func NewRedisCache(client *redis.Client, scheduleTTL, lockTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:      client,
		scheduleTTL: scheduleTTL,
		lockTTL:     lockTTL,
	}
}

func scheduleKey(purchaseID uuid.UUID) string {
	return scheduleKeyPrefix + purchaseID.String()
}

func versionKey(purchaseID uuid.UUID) string {
	return versionKeyPrefix + purchaseID.String()
}

func (c *RedisCache) GetSchedule(ctx context.Context, purchaseID uuid.UUID) ([]*domain.Installment, bool, error) {
	data, err := c.client.Get(ctx, scheduleKey(purchaseID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, customError.WrapCacheError(err)
	}

	var schedule []*domain.Installment
	if err := json.Unmarshal(data, &schedule); err != nil {
		// A corrupt entry is treated as a miss and dropped
		_ = c.client.Del(ctx, scheduleKey(purchaseID)).Err()
		return nil, false, nil
	}

	return schedule, true, nil
}

// Version returns the invalidation counter of a purchase schedule
func (c *RedisCache) Version(ctx context.Context, purchaseID uuid.UUID) (int64, error) {
	version, err := c.client.Get(ctx, versionKey(purchaseID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, customError.WrapCacheError(err)
	}
	return version, nil
}

// SetSchedule is a no-op when the schedule was invalidated after version was read
func (c *RedisCache) SetSchedule(ctx context.Context, purchaseID uuid.UUID, version int64, schedule []*domain.Installment) error {
	data, err := json.Marshal(schedule)
	if err != nil {
		return err
	}

	keys := []string{versionKey(purchaseID), scheduleKey(purchaseID)}
	err = setIfVersionScript.Run(ctx, c.client, keys, version, data, c.scheduleTTL.Milliseconds()).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return customError.WrapCacheError(err)
	}
	return nil
}

// Invalidate drops the cached schedule and bumps its version in one transaction
func (c *RedisCache) Invalidate(ctx context.Context, purchaseID uuid.UUID) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(purchaseID))
		pipe.Del(ctx, scheduleKey(purchaseID))
		return nil
	})
	if err != nil {
		return customError.WrapCacheError(err)
	}
	return nil
}

// Acquire takes a SETNX lock that expires after the lock TTL, so a crashed holder
// cannot block a purchase forever.
func (c *RedisCache) Acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	lockKey := lockKeyPrefix + key
	token := uuid.NewString()

	ok, err := c.client.SetNX(ctx, lockKey, token, c.lockTTL).Result()
	if err != nil {
		return nil, customError.WrapCacheError(err)
	}
	if !ok {
		return nil, errLockHeld(key)
	}

	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, c.client, []string{lockKey}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return customError.WrapCacheError(err)
		}
		return nil
	}, nil
}

// Ping checks redis connectivity
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func errLockHeld(key string) error {
	id := strings.TrimPrefix(key, "purchase:")
	return customError.WrapPaymentInProgress(id)
}

// PurchaseLockKey names the payment lock of a purchase
func PurchaseLockKey(purchaseID uuid.UUID) string {
	return fmt.Sprintf("purchase:%s", purchaseID)
}
