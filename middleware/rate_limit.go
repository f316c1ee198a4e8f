package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/bondlyapp/bondly/config"
	"github.com/bondlyapp/bondly/utils"
)

const limiterIdleTTL = 5 * time.Minute

type clientLimiter struct {
	bucket  *rate.Limiter
	expires time.Time
}

var (
	limiters   = map[string]*clientLimiter{}
	limitersMu sync.Mutex
)

// RateLimitMiddleware throttles requests with a token bucket per caller.
// Authenticated requests are keyed by user id so couples behind one NAT do
// not share a bucket; anonymous requests fall back to the client IP.
func RateLimitMiddleware() gin.HandlerFunc {
	cfg := config.Get()
	perMinute := max(cfg.RateLimitPerMinute, 1)
	limit := rate.Every(time.Minute / time.Duration(perMinute))
	burst := max(perMinute/2, 1)

	return func(ctx *gin.Context) {
		key := ctx.GetString(ContextUserIDKey)
		if key == "" {
			key = ctx.ClientIP()
		}

		if !bucketFor(key, limit, burst).Allow() {
			utils.Error(ctx, 429, 42901, "rate limit exceeded")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

func bucketFor(key string, limit rate.Limit, burst int) *rate.Limiter {
	limitersMu.Lock()
	defer limitersMu.Unlock()

	now := time.Now()
	for k, cl := range limiters {
		if now.After(cl.expires) {
			delete(limiters, k)
		}
	}

	cl, ok := limiters[key]
	if !ok {
		cl = &clientLimiter{bucket: rate.NewLimiter(limit, burst)}
		limiters[key] = cl
	}
	cl.expires = now.Add(limiterIdleTTL)
	return cl.bucket
}
