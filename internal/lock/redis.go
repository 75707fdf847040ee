// Package lock provides a Redis backed mutual exclusion lock with an
// expiry, used to keep concurrent reminder sweeps from overlapping.
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// newToken identifies one holder of a lock.
var newToken = uuid.NewString

// releaseScript deletes the key only while it still carries our token, so
// a lock that expired and was taken by another holder is left alone.
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// RedisLocker implements single-instance Redis locking (SET NX PX).
type RedisLocker struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisLocker(rdb *redis.Client, prefix string) *RedisLocker {
	if prefix == "" {
		prefix = "eqlock"
	}
	return &RedisLocker{rdb: rdb, prefix: prefix}
}

// Acquire tries once to take key for ttl.  ok is false when the lock is
// held by someone else; err is set only when Redis could not be asked.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	token := newToken()
	full := l.prefix + ":" + key
	ok, err := l.rdb.SetNX(ctx, full, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire lock %s: %w", full, err)
	}
	if !ok {
		return nil, false, nil
	}
	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.rdb, []string{full}, token).Err(); err != nil {
			return fmt.Errorf("release lock %s: %w", full, err)
		}
		return nil
	}
	return release, true, nil
}
