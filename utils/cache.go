package utils

import (
	"context"
	"encoding/json"
	"time"
)

// Cache TTLs for the catalog surfaces served from Redis.
const (
	DailyActivitiesTTL = time.Hour
	CategoriesTTL      = 24 * time.Hour
)

// CacheGetJSON loads a cached JSON value into out. Returns false on miss or
// when Redis is unavailable; callers fall back to the database.
func CacheGetJSON(key string, out interface{}) bool {
	rc := GetRedis()
	if rc == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	b, err := rc.Get(ctx, key).Bytes()
	if err != nil {
		if Sugar != nil {
			Sugar.Debugf("cache miss key=%s err=%v", key, err)
		}
		return false
	}
	if err := json.Unmarshal(b, out); err != nil {
		if Sugar != nil {
			Sugar.Warnf("cache decode failed key=%s err=%v", key, err)
		}
		return false
	}
	return true
}

// CacheSetJSON marshals v and stores it with the given TTL, best-effort.
func CacheSetJSON(key string, v interface{}, ttl time.Duration) {
	rc := GetRedis()
	if rc == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Set(ctx, key, b, ttl).Err(); err != nil {
		if Sugar != nil {
			Sugar.Warnf("cache set failed key=%s err=%v", key, err)
		}
	}
}
