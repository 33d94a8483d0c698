package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	lockKeyPrefix    = "cms:lock:"
	defaultLockTTL   = 30 * time.Second
	lockRetryBackoff = 50 * time.Millisecond
)

// 自分が取得したロックだけを削除する
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker は複数プロセス間で共有できる Locker です。
// ロックは ttl 経過で自動的に失効します。
type RedisLocker struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisLocker は RedisLocker を作成します。ttl が0以下の場合は30秒を使います。
func NewRedisLocker(rdb *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLocker{rdb: rdb, ttl: ttl}
}

// Lock は SET NX でロックを取得するまで再試行します。
func (l *RedisLocker) Lock(ctx context.Context, name string) (func(), error) {
	key := lockKey(name)
	token := uuid.NewString()

	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", name, err)
		}
		if ok {
			break
		}

		timer := time.NewTimer(lockRetryBackoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// リクエストがキャンセルされていても解放は行う
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = unlockScript.Run(ctx, l.rdb, []string{key}, token).Err()
		})
	}, nil
}

func lockKey(name string) string {
	return lockKeyPrefix + name
}
