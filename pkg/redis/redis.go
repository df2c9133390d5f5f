package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tapreview/tapreview-backend/config"
	"github.com/tapreview/tapreview-backend/pkg/logger"
)

var client *redis.Client

// Init initializes Redis connection
func Init(cfg *config.RedisConfig) error {
	logger.Info("Initializing Redis connection", map[string]interface{}{
		"host": cfg.Host,
		"port": cfg.Port,
		"db":   cfg.DB,
	})

	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, map[string]interface{}{
			"host": cfg.Host,
			"port": cfg.Port,
		})
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established successfully", nil)
	return nil
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	return client
}

// Close closes the Redis connection
func Close() error {
	if client != nil {
		logger.Info("Closing Redis connection", nil)
		return client.Close()
	}
	return nil
}

func sessionKey(tokenID string) string {
	return fmt.Sprintf("session:%s", tokenID)
}

// CacheSession caches an admin session lookup so the auth middleware can skip
// the database on repeat requests. Best-effort: callers fall back to the
// database when Redis is unavailable.
func CacheSession(ctx context.Context, tokenID string, adminID uint, ttl time.Duration) error {
	if client == nil {
		return nil
	}
	return client.Set(ctx, sessionKey(tokenID), adminID, ttl).Err()
}

// GetCachedSession returns the admin id for a cached session, or found=false
// on a miss.
func GetCachedSession(ctx context.Context, tokenID string) (adminID uint, found bool, err error) {
	if client == nil {
		return 0, false, nil
	}
	val, err := client.Get(ctx, sessionKey(tokenID)).Uint64()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return uint(val), true, nil
}

// InvalidateSession drops a cached session on logout or revocation.
func InvalidateSession(ctx context.Context, tokenID string) error {
	if client == nil {
		return nil
	}
	return client.Del(ctx, sessionKey(tokenID)).Err()
}
