// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/models"
	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces every key this service writes.
var DefaultKeyPrefix = "rps"

// DefaultHistoryTTL bounds how long an abandoned history list survives if the
// room teardown never got to delete it.
var DefaultHistoryTTL = 24 * time.Hour

// ConnectRedis opens a client and pings it. Empty addr and negative db fall
// back to the environment:
//   - REDIS_ADDR (default "localhost:6379")
//   - REDIS_DB (optional, default 0)
func ConnectRedis(ctx context.Context, addr string, db int) (*redis.Client, error) {
	if addr == "" {
		addr = getEnv("REDIS_ADDR", "localhost:6379")
	}
	if db < 0 {
		db = getEnvInt("REDIS_DB", 0)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// RedisHistory keeps each room's recent rounds in a capped Redis list.
type RedisHistory struct {
	rdb    *redis.Client
	size   int
	ttl    time.Duration
	prefix string
}

// NewRedisHistory keeps the last size rounds per room.
func NewRedisHistory(rdb *redis.Client, size int) *RedisHistory {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &RedisHistory{
		rdb:    rdb,
		size:   size,
		ttl:    DefaultHistoryTTL,
		prefix: getEnv("HISTORY_KEY_PREFIX", DefaultKeyPrefix),
	}
}

func (h *RedisHistory) key(roomID string) string {
	return fmt.Sprintf("%s:rooms:%s:rounds", h.prefix, roomID)
}

// Append serializes the record and pushes it, trimming the list to size.
func (h *RedisHistory) Append(ctx context.Context, rec models.RoundRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal RoundRecord: %w", err)
	}
	key := h.key(rec.RoomID)
	_, err = h.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, data)
		pipe.LTrim(ctx, key, int64(-h.size), -1)
		pipe.Expire(ctx, key, h.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", key, err)
	}
	return nil
}

// Recent returns the kept rounds, oldest first.
func (h *RedisHistory) Recent(ctx context.Context, roomID string) ([]models.RoundRecord, error) {
	key := h.key(roomID)
	raw, err := h.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read Redis list '%s': %w", key, err)
	}
	out := make([]models.RoundRecord, 0, len(raw))
	for _, item := range raw {
		var rec models.RoundRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("corrupt round record in '%s': %w", key, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Drop deletes the room's list.
func (h *RedisHistory) Drop(ctx context.Context, roomID string) error {
	if err := h.rdb.Del(ctx, h.key(roomID)).Err(); err != nil {
		return fmt.Errorf("failed to delete history for room %s: %w", roomID, err)
	}
	return nil
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
