package app

import (
	"context"
	"fmt"

	"github.com/ToonLance/freelancer-nest-profile/internal/config"
	"github.com/ToonLance/freelancer-nest-profile/internal/db"
	"github.com/ToonLance/freelancer-nest-profile/internal/logger"
	"github.com/ToonLance/freelancer-nest-profile/internal/redis"
)

type Infra struct {
	DB    *db.DB
	Redis *redis.Client
}

func setupInfra(ctx context.Context, cfg config.Config) (*Infra, error) {
	database, err := db.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(ctx, database); err != nil {
		_ = database.Close()
		return nil, err
	}

	logger.Info("database ready", nil)

	redisClient, err := redis.New(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		_ = database.Close()
		return nil, err
	}

	logger.Info("redis ready", map[string]any{
		"addr": cfg.RedisAddr,
	})

	return &Infra{
		DB:    database,
		Redis: redisClient,
	}, nil
}

// Check reports the first backend that does not answer.
func (i *Infra) Check(ctx context.Context) error {
	if err := i.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	if err := i.Redis.Check(ctx); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	return nil
}

func (i *Infra) Close() error {
	redisErr := i.Redis.Close()
	if err := i.DB.Close(); err != nil {
		return err
	}
	return redisErr
}
