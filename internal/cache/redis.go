package cache

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache keys
const (
	scanTokenKeyFmt = "scan:token:%s"
	actorBucketFmt  = "scan:actor:%d:%d"
	RosterKeyFmt    = "roster:%s"
)

var client *redis.Client

// Init initializes the Redis connection. The service degrades
// gracefully when Redis is unavailable: the scan guard falls back to
// in-process state and reads go straight to the database.
func Init() error {
	host := os.Getenv("REDIS_SERVICE_HOST")
	if host == "" {
		host = "redis"
	}
	port := os.Getenv("REDIS_SERVICE_PORT")
	if port == "" {
		port = "6379"
	}

	client = redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		client = nil
		return err
	}
	return nil
}

// RegisterScanToken records a token hash for duplicate suppression.
// Returns (firstSeen, ok); ok=false means Redis could not answer and
// the caller must fall back to local state.
func RegisterScanToken(ctx context.Context, tokenHash string, window time.Duration) (bool, bool) {
	if client == nil {
		return false, false
	}
	key := fmt.Sprintf(scanTokenKeyFmt, tokenHash)
	set, err := client.SetNX(ctx, key, 1, window).Result()
	if err != nil {
		return false, false
	}
	return set, true
}

// CountActorScan increments the actor's current one-minute bucket and
// returns the count. The bucket expires on its own after two windows.
func CountActorScan(ctx context.Context, actorID int, now time.Time) (int64, bool) {
	if client == nil {
		return 0, false
	}
	key := fmt.Sprintf(actorBucketFmt, actorID, now.Unix()/60)
	count, err := client.Incr(ctx, key).Result()
	if err != nil {
		return 0, false
	}
	client.Expire(ctx, key, 2*time.Minute)
	return count, true
}

// GetCached returns cached data for a key
func GetCached(ctx context.Context, key string) ([]byte, bool) {
	if client == nil {
		return nil, false
	}
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetCached stores data with a TTL
func SetCached(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if client == nil {
		return
	}
	client.Set(ctx, key, data, ttl)
}

// InvalidateRoster drops the cached roster for a department. Called
// after every successful transition touching it.
func InvalidateRoster(ctx context.Context, departmentCode string) {
	if client == nil {
		return
	}
	client.Del(ctx, fmt.Sprintf(RosterKeyFmt, departmentCode))
}

// IsHealthy returns true if the Redis connection is working
func IsHealthy() bool {
	if client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return client.Ping(ctx).Err() == nil
}
