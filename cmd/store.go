package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"busreg-server-go/config"
	"busreg-server-go/db"
)

// openStore connects to the configured backend.
func openStore(ctx context.Context, storage config.StorageConfig, log *zap.Logger) (db.Store, error) {
	switch storage.Backend {
	case config.BackendRedis:
		rdb, err := db.InitializeRedisClient(ctx, db.RedisOptions{
			Addr:     storage.Redis.Addr,
			Password: storage.Redis.Password,
			DB:       storage.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		log.Info("connected to redis", zap.String("addr", storage.Redis.Addr), zap.Int("db", storage.Redis.DB))
		return db.NewRedisService(rdb, log), nil
	case config.BackendSQLite:
		store, err := db.OpenSQLite(storage.SQLite, log)
		if err != nil {
			return nil, err
		}
		log.Info("opened sqlite database", zap.String("path", storage.SQLite))
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", storage.Backend)
	}
}
