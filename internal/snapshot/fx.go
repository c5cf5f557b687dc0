package snapshot

import (
	"context"
	"fmt"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/snelcrm/internal/config"
	"github.com/smallbiznis/snelcrm/internal/snapshot/domain"
	"github.com/smallbiznis/snelcrm/internal/snapshot/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("snapshot",
	fx.Provide(NewRedisClient),
	fx.Provide(NewStore),
	fx.Provide(func(cfg config.Config) Codec { return NewCodec(cfg.Snapshot.Compression) }),
)

// NewRedisClient returns nil unless some component is configured for redis.
func NewRedisClient(lc fx.Lifecycle, cfg config.Config) *redis.Client {
	if cfg.Snapshot.Backend != config.SnapshotBackendRedis && !cfg.RateLimit.Enabled {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client
}

type Params struct {
	fx.In

	Config config.Config
	Log    *zap.Logger
	DB     *gorm.DB      `optional:"true"`
	Redis  *redis.Client `optional:"true"`
}

func NewStore(p Params) (domain.Store, error) {
	var (
		store domain.Store
		err   error
	)
	switch p.Config.Snapshot.Backend {
	case config.SnapshotBackendMemory:
		store = repository.NewMemoryStore()
	case config.SnapshotBackendRedis:
		store, err = repository.NewRedisStore(p.Redis, p.Config.Snapshot.KeyPrefix)
	default:
		if p.DB == nil {
			return nil, fmt.Errorf("snapshot backend %q requires a database", p.Config.Snapshot.Backend)
		}
		store, err = repository.NewGormStore(p.DB)
	}
	if err != nil {
		return nil, err
	}
	p.Log.Named("snapshot").Info("snapshot store ready",
		zap.String("backend", store.Name()),
		zap.String("compression", p.Config.Snapshot.Compression),
	)
	return store, nil
}
