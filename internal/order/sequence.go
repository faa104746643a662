package order

import (
	"context"
	"sync/atomic"

	"github.com/juju/errors"
	"github.com/redis/go-redis/v9"
)

// Sequence hands out order numbers, each at most once.
type Sequence interface {
	Next(ctx context.Context) (uint32, error)
}

type AtomicSequence struct{ last uint32 }

// NewAtomicSequence continues after `last`, e.g. highest stored number.
func NewAtomicSequence(last uint32) *AtomicSequence { return &AtomicSequence{last: last} }

func (self *AtomicSequence) Next(context.Context) (uint32, error) {
	return atomic.AddUint32(&self.last, 1), nil
}

// RedisSequence shares numbering between terminals through INCR.
type RedisSequence struct {
	rdb redis.Cmdable
	key string
}

func NewRedisSequence(rdb redis.Cmdable, key string) *RedisSequence {
	if key == "" {
		key = "canteen:order:seq"
	}
	return &RedisSequence{rdb: rdb, key: key}
}

func (self *RedisSequence) Next(ctx context.Context) (uint32, error) {
	n, err := self.rdb.Incr(ctx, self.key).Result()
	if err != nil {
		return 0, errors.Annotatef(err, "redis incr key=%s", self.key)
	}
	if n <= 0 || n > int64(^uint32(0)) {
		return 0, errors.Errorf("redis key=%s value=%d out of range", self.key, n)
	}
	return uint32(n), nil
}

// Floor moves shared counter up to at least `last`, never down.
func (self *RedisSequence) Floor(ctx context.Context, last uint32) error {
	const script = `local v = tonumber(redis.call('GET', KEYS[1]) or '0')
if v < tonumber(ARGV[1]) then redis.call('SET', KEYS[1], ARGV[1]) end
return 0`
	err := self.rdb.Eval(ctx, script, []string{self.key}, last).Err()
	return errors.Annotatef(err, "redis floor key=%s", self.key)
}
