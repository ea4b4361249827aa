package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"cyberguard/models"

	"github.com/go-redis/redis/v8"
)

var RDB *redis.Client

// InitRedis connects to Redis. An empty url or an unreachable server leaves
// RDB nil and every helper below becomes a no-op miss.
func InitRedis(ctx context.Context, url string) {
	if url == "" {
		log.Println("[CACHE] ⚠️ REDIS_URL not set, running without cache")
		return
	}

	opts := &redis.Options{Addr: url}
	if strings.Contains(url, "://") {
		parsed, err := redis.ParseURL(url)
		if err != nil {
			log.Printf("[CACHE] ⚠️ Invalid REDIS_URL: %v", err)
			return
		}
		opts = parsed
	}

	client := redis.NewClient(opts)
	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Printf("[CACHE] ⚠️ Redis unavailable: %v", err)
		client.Close()
		return
	}

	RDB = client
	log.Println("[CACHE] ✓ Connected to Redis")
}

func Get(ctx context.Context, key string) (string, error) {
	if RDB == nil {
		return "", redis.Nil
	}
	return RDB.Get(ctx, key).Result()
}

func Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	if RDB == nil {
		return nil
	}
	return RDB.Set(ctx, key, value, expiration).Err()
}

// GetJSON decodes a cached value into v. A miss is (false, nil).
func GetJSON(ctx context.Context, key string, v any) (bool, error) {
	raw, err := Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, err
	}
	return true, nil
}

func SetJSON(ctx context.Context, key string, v any, expiration time.Duration) error {
	if RDB == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return Set(ctx, key, string(raw), expiration)
}

const statusKey = "cyberguard:status"

// StatusCache keeps the last backend status answer for TTL so the status
// indicator does not hit the backend on every page load.
type StatusCache struct {
	TTL time.Duration
}

func (c StatusCache) GetStatus(ctx context.Context) (*models.Status, bool) {
	var st models.Status
	ok, err := GetJSON(ctx, statusKey, &st)
	if err != nil {
		log.Printf("[CACHE] ⚠️ Status read failed: %v", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return &st, true
}

func (c StatusCache) SetStatus(ctx context.Context, st *models.Status) {
	if c.TTL <= 0 {
		return
	}
	if err := SetJSON(ctx, statusKey, st, c.TTL); err != nil {
		log.Printf("[CACHE] ⚠️ Status write failed: %v", err)
	}
}
