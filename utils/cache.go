// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"bookline/config"

	"github.com/go-redis/redis/v8"
)

// HistoryClient is the Redis client backing conversation history.
var HistoryClient *redis.Client

// InitRedis initializes the Redis client for conversation history.
func InitRedis() {
	HistoryClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisHistoryDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := HistoryClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (History): %v", err)
	}
}

// GetHistoryClient returns the conversation-history Redis client.
func GetHistoryClient() *redis.Client {
	if HistoryClient == nil {
		InitRedis()
	}
	return HistoryClient
}
