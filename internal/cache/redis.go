package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"printshop/internal/config"

	"github.com/go-redis/redis/v8"
)

// NewRedisClient builds the shared Redis client used for report caching.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx := context.Background()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Printf("WARNING: Redis unavailable, report caching disabled: %v", err)
	}

	return rdb
}
