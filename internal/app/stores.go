package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis"

	"github.com/hitoshi/salesdash/internal/config"
	"github.com/hitoshi/salesdash/internal/database"
	"github.com/hitoshi/salesdash/internal/handler"
	"github.com/hitoshi/salesdash/internal/tokenstore"
)

// pingFunc は関数をhandler.HealthCheckerに適合させる。
type pingFunc func(ctx context.Context) error

// Ping はHealthCheckerを実装する。
func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

// stores はトークンとユーザー情報の保存先、および疎通確認と後始末をまとめたもの。
type stores struct {
	tokens   tokenstore.Store
	profiles tokenstore.Store
	health   handler.HealthChecker
	closers  []func() error
}

// Close は保存先の接続を閉じる。
func (s *stores) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// openStores はTOKEN_STOREの設定に応じた保存先を開く。
func openStores(cfg *config.Config) (*stores, error) {
	switch cfg.TokenStore {
	case config.TokenStoreMemory:
		return &stores{
			tokens:   tokenstore.NewMemoryStore(),
			profiles: tokenstore.NewMemoryStore(),
		}, nil

	case config.TokenStorePostgres:
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		return &stores{
			tokens:   tokenstore.NewPostgresStore(db, tokenstore.DefaultTokenKey),
			profiles: tokenstore.NewPostgresStore(db, tokenstore.ProfileKey),
			health:   pingFunc(db.PingContext),
			closers:  []func() error{db.Close},
		}, nil

	case config.TokenStoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return &stores{
			tokens:   tokenstore.NewRedisStore(client, tokenstore.DefaultTokenKey),
			profiles: tokenstore.NewRedisStore(client, tokenstore.ProfileKey),
			health: pingFunc(func(ctx context.Context) error {
				return client.WithContext(ctx).Ping().Err()
			}),
			closers: []func() error{client.Close},
		}, nil

	case config.TokenStoreFile, "":
		return &stores{
			tokens:   tokenstore.NewFileStore(cfg.StateDir, tokenstore.DefaultTokenKey),
			profiles: tokenstore.NewFileStore(cfg.StateDir, tokenstore.ProfileKey),
		}, nil

	default:
		return nil, fmt.Errorf("unsupported token store: %q", cfg.TokenStore)
	}
}
