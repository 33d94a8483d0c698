package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"

	"github.com/yourusername/file-cms/internal/auth"
	"github.com/yourusername/file-cms/internal/config"
	"github.com/yourusername/file-cms/internal/session"
	"github.com/yourusername/file-cms/internal/storage"
)

const redisPingTimeout = 3 * time.Second

// setupLocker は REDIS_URL が設定されていれば Redis のロックを、なければプロセス内ロックを返します。
func setupLocker(cfg *config.Config) (storage.Locker, func(), error) {
	if cfg.RedisURL == "" {
		return storage.NewMemoryLocker(), func() {}, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return storage.NewRedisLocker(client, 0), func() { _ = client.Close() }, nil
}

// setupSessions は設定に応じたセッションストアを作成します。
func setupSessions(cfg *config.Config) (sessions.Store, error) {
	return session.NewStore(session.StoreOptions{
		Kind:   cfg.SessionStore,
		Secret: []byte(cfg.SessionSecret),
		Secure: cfg.GinMode == gin.ReleaseMode,
		MaxAge: auth.SessionMaxAge(),
	})
}
