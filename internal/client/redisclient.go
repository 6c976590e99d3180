package client

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

func InitRedisClient(redisURL string) *redis.Client {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatal("invalid redis url:", err)
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("failed to connect to redis:", err)
	}

	return rdb
}
