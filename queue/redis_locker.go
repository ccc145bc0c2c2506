package queue

import (
	"context"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const lockPrefix = "imagecatalog:lock:"

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(1, `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var extendScript = redis.NewScript(1, `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

type RedisLocker struct {
	pool *redis.Pool
}

func NewRedisPool(url string) *redis.Pool {
	return &redis.Pool{
		Dial: func() (redis.Conn, error) {
			return redis.DialURL(url,
				redis.DialConnectTimeout(5*time.Second),
				redis.DialReadTimeout(5*time.Second),
				redis.DialWriteTimeout(5*time.Second),
			)
		},
		MaxIdle:     4,
		IdleTimeout: 5 * time.Minute,
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}
}

func NewRedisLocker(pool *redis.Pool) *RedisLocker {
	return &RedisLocker{pool: pool}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	conn, err := l.pool.GetContext(ctx)
	if err != nil {
		return "", false, errors.Wrap(err, "could not get redis connection")
	}
	defer conn.Close()

	token := uuid.New().String()
	_, err = redis.String(conn.Do("SET", lockPrefix+key, token, "NX", "PX", ttl.Milliseconds()))
	if errors.Is(err, redis.ErrNil) {
		// somebody else holds the lock
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "could not acquire lock")
	}
	return token, true, nil
}

func (l *RedisLocker) Extend(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	conn, err := l.pool.GetContext(ctx)
	if err != nil {
		return false, errors.Wrap(err, "could not get redis connection")
	}
	defer conn.Close()

	extended, err := redis.Int(extendScript.Do(conn, lockPrefix+key, token, ttl.Milliseconds()))
	if err != nil {
		return false, errors.Wrap(err, "could not extend lock")
	}
	return extended == 1, nil
}

func (l *RedisLocker) Release(ctx context.Context, key, token string) error {
	conn, err := l.pool.GetContext(ctx)
	if err != nil {
		return errors.Wrap(err, "could not get redis connection")
	}
	defer conn.Close()

	_, err = releaseScript.Do(conn, lockPrefix+key, token)
	return errors.Wrap(err, "could not release lock")
}
