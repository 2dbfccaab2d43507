package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pizzeria-backend/pkg/cache"
	"pizzeria-backend/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// redisCache stores JSON-encoded values under "<prefix>:v:<key>".
// A sorted set "<prefix>:index" scored by creation time drives oldest-first eviction.
// Backend failures are logged and reported as misses.
type redisCache struct {
	client     *redis.Client
	prefix     string
	maxEntries int
	timeout    time.Duration
	now        func() time.Time
}

// redisSetScript evicts and inserts in one step so concurrent writers sharing a prefix
// can neither double-evict nor overshoot maxEntries.
// KEYS[1] = index sorted set
// KEYS[2] = value key
// ARGV[1] = member, ARGV[2] = JSON value, ARGV[3] = ttl in ms (0 keeps it forever)
// ARGV[4] = createdAt score, ARGV[5] = maxEntries (<= 0 is unbounded), ARGV[6] = value key prefix
var redisSetScript = redis.NewScript(`
local index = KEYS[1]
local member = ARGV[1]
local ttl = tonumber(ARGV[3])
local maxEntries = tonumber(ARGV[5])
local prefix = ARGV[6]

if maxEntries > 0 and not redis.call("ZSCORE", index, member) then
    local excess = redis.call("ZCARD", index) - maxEntries + 1
    if excess > 0 then
        local oldest = redis.call("ZRANGE", index, 0, excess - 1)
        for _, m in ipairs(oldest) do
            redis.call("DEL", prefix .. m)
        end
        redis.call("ZREMRANGEBYRANK", index, 0, excess - 1)
    end
end

if ttl > 0 then
    redis.call("SET", KEYS[2], ARGV[2], "PX", ttl)
else
    redis.call("SET", KEYS[2], ARGV[2])
end
redis.call("ZADD", index, ARGV[4], member)
return 1
`)

// redisCountScript drops index members whose value has expired and returns what is left.
// KEYS[1] = index sorted set, ARGV[1] = value key prefix
var redisCountScript = redis.NewScript(`
local index = KEYS[1]
local prefix = ARGV[1]
for _, m in ipairs(redis.call("ZRANGE", index, 0, -1)) do
    if redis.call("EXISTS", prefix .. m) == 0 then
        redis.call("ZREM", index, m)
    end
end
return redis.call("ZCARD", index)
`)

func NewRedisCache(client *redis.Client, prefix string, maxEntries int) cache.CacheService {
	return &redisCache{
		client:     client,
		prefix:     prefix,
		maxEntries: maxEntries,
		timeout:    500 * time.Millisecond,
		now:        time.Now,
	}
}

func (r *redisCache) key(k string) string {
	return fmt.Sprintf("%s:v:%s", r.prefix, k)
}

func (r *redisCache) indexKey() string {
	return r.prefix + ":index"
}

func (r *redisCache) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), r.timeout)
}

func (r *redisCache) Get(key string) (interface{}, bool) {
	ctx, cancel := r.ctx()
	defer cancel()

	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		// expired by redis; drop the stale index member
		r.client.ZRem(ctx, r.indexKey(), key)
		return nil, false
	}
	if err != nil {
		logger.Warn().Err(err).Str("prefix", r.prefix).Str("key", key).Msg("redis cache get failed")
		return nil, false
	}
	return data, true
}

func (r *redisCache) Set(key string, value interface{}, duration time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		logger.Warn().Err(err).Str("prefix", r.prefix).Str("key", key).Msg("redis cache marshal failed")
		return
	}

	ctx, cancel := r.ctx()
	defer cancel()

	ttl := duration.Milliseconds()
	if duration > 0 && ttl == 0 {
		ttl = 1
	}

	err = redisSetScript.Run(ctx, r.client,
		[]string{r.indexKey(), r.key(key)},
		key, data, ttl, r.now().UnixNano(), r.maxEntries, r.prefix+":v:",
	).Err()
	if err != nil {
		logger.Warn().Err(err).Str("prefix", r.prefix).Str("key", key).Msg("redis cache set failed")
	}
}

func (r *redisCache) Delete(key string) {
	ctx, cancel := r.ctx()
	defer cancel()

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.key(key))
	pipe.ZRem(ctx, r.indexKey(), key)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Warn().Err(err).Str("prefix", r.prefix).Str("key", key).Msg("redis cache delete failed")
	}
}

func (r *redisCache) Flush() {
	ctx, cancel := r.ctx()
	defer cancel()

	members, err := r.client.ZRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		logger.Warn().Err(err).Str("prefix", r.prefix).Msg("redis cache flush failed")
		return
	}
	keys := make([]string, 0, len(members)+1)
	for _, m := range members {
		keys = append(keys, r.key(m))
	}
	keys = append(keys, r.indexKey())
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		logger.Warn().Err(err).Str("prefix", r.prefix).Msg("redis cache flush failed")
	}
}

func (r *redisCache) ItemCount() int {
	ctx, cancel := r.ctx()
	defer cancel()

	n, err := redisCountScript.Run(ctx, r.client, []string{r.indexKey()}, r.prefix+":v:").Int64()
	if err != nil {
		logger.Warn().Err(err).Str("prefix", r.prefix).Msg("redis cache count failed")
		return 0
	}
	return int(n)
}
