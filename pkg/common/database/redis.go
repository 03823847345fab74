package database

import (
	"context"
	"fmt"
	"time"

	"github.com/neuroscreen-ai/platform/pkg/common/config"
	"github.com/redis/go-redis/v9"
)

// NewRedis dials Redis using the injected configuration. Callers own the
// returned client and are responsible for closing it on shutdown.
func NewRedis(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return client, nil
}
