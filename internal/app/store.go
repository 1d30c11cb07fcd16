package app

import (
	"context"

	"github.com/mbeoliero/kit/log"
	"github.com/redis/go-redis/v9"

	"github.com/mbeoliero/xchange/internal/config"
	"github.com/mbeoliero/xchange/internal/session"
	"github.com/mbeoliero/xchange/pkg/constant"
)

// Store is the token store picked by configuration plus whatever connection backs it
type Store struct {
	session.TokenStore
	Redis *redis.Client
}

// NewStore creates the token store named by cfg.Session.Store
func NewStore(cfg *config.Config) *Store {
	switch cfg.Session.Store {
	case config.SessionStoreRedis:
		constant.InitRedisKeyPrefix(cfg.Redis.KeyPrefix)
		rdb := initRedis(cfg)
		return &Store{TokenStore: session.NewRedisTokenStore(rdb, cfg.Session.Profile), Redis: rdb}
	case config.SessionStoreMemory:
		return &Store{TokenStore: session.NewMemoryTokenStore()}
	default:
		return &Store{TokenStore: session.NewFileTokenStore(cfg.Session.FilePath)}
	}
}

// initRedis initializes Redis connection
func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// CheckConnection checks the backing connection, if any, is alive
func (s *Store) CheckConnection(ctx context.Context) error {
	if s.Redis == nil {
		return nil
	}
	if err := s.Redis.Ping(ctx).Err(); err != nil {
		log.CtxError(ctx, "redis ping failed: %v", err)
		return err
	}
	return nil
}

// Close closes the backing connection
func (s *Store) Close() error {
	if s.Redis == nil {
		return nil
	}
	return s.Redis.Close()
}
