package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/emojiblog/emojiblog/internal/cache"
)

// slidingLog trims hits older than the window, admits the new hit when the
// window has room, and returns {allowed, remaining, reset_us}.
// Scores are microseconds since the epoch.
var slidingLog = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
local allowed = 0
if count < limit then
  redis.call('ZADD', key, now, ARGV[4])
  count = count + 1
  allowed = 1
end
redis.call('PEXPIRE', key, math.ceil(window / 1000))

local reset = 0
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
if oldest[2] then
  reset = tonumber(oldest[2]) + window
end
local remaining = limit - count
if remaining < 0 then
  remaining = 0
end
return {allowed, remaining, reset}
`)

// RedisStore keeps hit logs in Redis sorted sets so every instance shares one window
type RedisStore struct {
	client cache.Scripter
}

func NewRedisStore(client cache.Scripter) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Allow(ctx context.Context, key string, now time.Time, window time.Duration, limit int) (Decision, error) {
	member := fmt.Sprintf("%d-%s", now.UnixMicro(), uuid.NewString())
	reply, err := slidingLog.Run(ctx, s.client, []string{key},
		now.UnixMicro(), window.Microseconds(), limit, member).Result()
	if err != nil {
		return Decision{}, err
	}
	vals, ok := reply.([]interface{})
	if !ok {
		return Decision{}, fmt.Errorf("unexpected script reply type %T", reply)
	}
	return decodeDecision(vals)
}

func decodeDecision(vals []interface{}) (Decision, error) {
	if len(vals) != 3 {
		return Decision{}, fmt.Errorf("unexpected script reply length %d", len(vals))
	}
	ints := make([]int64, 3)
	for i, v := range vals {
		n, ok := v.(int64)
		if !ok {
			return Decision{}, fmt.Errorf("unexpected script reply type %T", v)
		}
		ints[i] = n
	}
	d := Decision{Allowed: ints[0] == 1, Remaining: int(ints[1])}
	if ints[2] > 0 {
		d.Reset = time.UnixMicro(ints[2])
	}
	return d, nil
}
