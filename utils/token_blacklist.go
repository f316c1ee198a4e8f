package utils

import (
	"context"
	"sync"
	"time"
)

const blacklistKeyPrefix = "bondly:jwt:revoked:"

var (
	revokedTokens   = map[string]time.Time{}
	revokedTokensMu sync.RWMutex
)

// BlacklistToken revokes a token until its natural expiry so logout takes
// effect immediately. Redis holds the revocation with a TTL; without Redis an
// in-memory map covers the current process.
func BlacklistToken(token string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = rc.Set(ctx, blacklistKeyPrefix+token, "1", ttl).Err()
		return
	}

	revokedTokensMu.Lock()
	revokedTokens[token] = expiresAt
	pruneRevokedLocked()
	revokedTokensMu.Unlock()
}

// IsTokenBlacklisted reports whether a token was revoked before expiry.
// A Redis error is treated as not revoked; the token still carries a valid
// signature and expiry, and lockout on a cache hiccup is worse.
func IsTokenBlacklisted(token string) bool {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		n, err := rc.Exists(ctx, blacklistKeyPrefix+token).Result()
		if err == nil {
			return n > 0
		}
		return false
	}

	revokedTokensMu.RLock()
	expiresAt, ok := revokedTokens[token]
	revokedTokensMu.RUnlock()
	if !ok {
		return false
	}
	if time.Now().After(expiresAt) {
		revokedTokensMu.Lock()
		delete(revokedTokens, token)
		revokedTokensMu.Unlock()
		return false
	}
	return true
}

// pruneRevokedLocked drops expired entries. Caller holds the write lock.
func pruneRevokedLocked() {
	now := time.Now()
	for token, expiresAt := range revokedTokens {
		if now.After(expiresAt) {
			delete(revokedTokens, token)
		}
	}
}
