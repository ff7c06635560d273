package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"ferdi-server/backend/common"

	"github.com/gin-gonic/gin"
)

// Credential-bearing endpoints (login, signup, import) get a per-IP rate
// limit. Redis backs the counters when enabled so the limit holds across
// replicas; otherwise a process-local sliding window is used.

const (
	criticalRateLimitCount    = 20
	criticalRateLimitDuration = 20 * time.Minute
)

type memoryRateLimiter struct {
	mu        sync.Mutex
	history   map[string][]time.Time
	lastSweep time.Time
}

var criticalMemoryLimiter = &memoryRateLimiter{history: make(map[string][]time.Time)}

func (l *memoryRateLimiter) allow(key string, maxCount int, window time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-window)
	if now.Sub(l.lastSweep) > window {
		l.sweepLocked(cutoff)
		l.lastSweep = now
	}

	kept := l.history[key][:0]
	for _, t := range l.history[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) >= maxCount {
		l.history[key] = kept
		return false
	}
	l.history[key] = append(kept, now)
	return true
}

// sweepLocked drops keys whose whole window has elapsed, so idle client IPs
// do not accumulate in the map. Caller holds l.mu.
func (l *memoryRateLimiter) sweepLocked(cutoff time.Time) {
	for key, times := range l.history {
		stale := true
		for _, t := range times {
			if t.After(cutoff) {
				stale = false
				break
			}
		}
		if stale {
			delete(l.history, key)
		}
	}
}

func redisAllow(key string, maxCount int, window time.Duration) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	count, err := common.RDB.Incr(ctx, key).Result()
	if err != nil {
		// Fail open: a broken limiter should not lock everyone out.
		common.SysError("rate limiter redis error: " + err.Error())
		return true
	}
	if count == 1 {
		common.RDB.Expire(ctx, key, window)
	}
	return count <= int64(maxCount)
}

func rateLimit(prefix string, maxCount int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("rate:%s:%s", prefix, c.ClientIP())
		var ok bool
		if common.RedisEnabled && common.RDB != nil {
			ok = redisAllow(key, maxCount, window)
		} else {
			ok = criticalMemoryLimiter.allow(key, maxCount, window)
		}
		if !ok {
			common.RespError(c, http.StatusTooManyRequests, "Too many requests, please try again later")
			c.Abort()
			return
		}
		c.Next()
	}
}

func CriticalRateLimit() gin.HandlerFunc {
	return rateLimit("critical", criticalRateLimitCount, criticalRateLimitDuration)
}
