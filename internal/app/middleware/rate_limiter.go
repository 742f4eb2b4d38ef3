package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/error/code"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/error/response"
)

// TokenBucket 简单的令牌桶限流器
type TokenBucket struct {
	rate       float64    // 每秒填充的令牌数
	capacity   int        // 桶的容量
	tokens     float64    // 当前令牌数
	lastRefill time.Time  // 上次填充时间
	mu         sync.Mutex // 互斥锁
}

// NewTokenBucket 创建新的令牌桶限流器
func NewTokenBucket(rate float64, capacity int) *TokenBucket {
	return &TokenBucket{
		rate:       rate,
		capacity:   capacity,
		tokens:     float64(capacity),
		lastRefill: time.Now(),
	}
}

// Allow 尝试获取令牌
func (tb *TokenBucket) Allow() bool {
	return tb.allowAt(time.Now())
}

func (tb *TokenBucket) allowAt(now time.Time) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	elapsed := now.Sub(tb.lastRefill).Seconds()
	if elapsed > 0 {
		tb.tokens += elapsed * tb.rate
		tb.lastRefill = now
	}
	if tb.tokens > float64(tb.capacity) {
		tb.tokens = float64(tb.capacity)
	}

	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

// idle reports whether the bucket has not been touched since before cutoff
func (tb *TokenBucket) idle(cutoff time.Time) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.lastRefill.Before(cutoff)
}

// limiterSet 按键保存令牌桶, 超过 expiry 未使用的桶在下次写入时清理
type limiterSet struct {
	mu        sync.Mutex
	buckets   map[string]*TokenBucket
	expiry    time.Duration
	lastSweep time.Time
}

func newLimiterSet(expiry time.Duration) *limiterSet {
	return &limiterSet{
		buckets:   make(map[string]*TokenBucket),
		expiry:    expiry,
		lastSweep: time.Now(),
	}
}

func (s *limiterSet) get(key string, rate float64, burst int) *TokenBucket {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if s.expiry > 0 && now.Sub(s.lastSweep) >= s.expiry {
		cutoff := now.Add(-s.expiry)
		for k, b := range s.buckets {
			if b.idle(cutoff) {
				delete(s.buckets, k)
			}
		}
		s.lastSweep = now
	}

	limiter, ok := s.buckets[key]
	if !ok {
		limiter = NewTokenBucket(rate, burst)
		s.buckets[key] = limiter
	}
	return limiter
}

func (s *limiterSet) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

// RateLimiterConfig 限流器配置
type RateLimiterConfig struct {
	Rate       float64                   // 每秒允许的请求数
	Burst      int                       // 允许的突发请求数
	ExpiryTime time.Duration             // 限流器过期时间
	LimitType  string                    // 限流类型: "ip", "path", "combined", "custom"
	KeyFunc    func(*gin.Context) string // 自定义键生成函数
}

// DefaultRateLimiterConfig 默认限流器配置
var DefaultRateLimiterConfig = RateLimiterConfig{
	Rate:       1,
	Burst:      5,
	ExpiryTime: time.Hour,
	LimitType:  "ip",
}

// RateLimiter 创建限流中间件, 每个中间件实例持有自己的令牌桶
func RateLimiter(config ...RateLimiterConfig) gin.HandlerFunc {
	cfg := DefaultRateLimiterConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Rate <= 0 {
		cfg.Rate = DefaultRateLimiterConfig.Rate
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultRateLimiterConfig.Burst
	}
	if cfg.ExpiryTime <= 0 {
		cfg.ExpiryTime = DefaultRateLimiterConfig.ExpiryTime
	}
	if cfg.LimitType == "" {
		cfg.LimitType = DefaultRateLimiterConfig.LimitType
	}

	limiters := newLimiterSet(cfg.ExpiryTime)

	return func(c *gin.Context) {
		var key string
		switch cfg.LimitType {
		case "path":
			key = c.Request.URL.Path
		case "combined":
			key = c.ClientIP() + ":" + c.Request.URL.Path
		case "custom":
			if cfg.KeyFunc != nil {
				key = cfg.KeyFunc(c)
			} else {
				key = c.ClientIP()
			}
		default:
			key = c.ClientIP()
		}

		if !limiters.get(key, cfg.Rate, cfg.Burst).Allow() {
			response.FailWithMessage(c, code.ErrTooManyRequests, "请求频率过高，请稍后再试", nil)
			c.Abort()
			return
		}

		c.Next()
	}
}

// IPRateLimiter 按IP限流
func IPRateLimiter(rate float64, burst int) gin.HandlerFunc {
	return RateLimiter(RateLimiterConfig{
		Rate:      rate,
		Burst:     burst,
		LimitType: "ip",
	})
}

// PathRateLimiter 按路径限流
func PathRateLimiter(rate float64, burst int) gin.HandlerFunc {
	return RateLimiter(RateLimiterConfig{
		Rate:      rate,
		Burst:     burst,
		LimitType: "path",
	})
}

// CustomRateLimiter 自定义键限流
func CustomRateLimiter(rate float64, burst int, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return RateLimiter(RateLimiterConfig{
		Rate:      rate,
		Burst:     burst,
		LimitType: "custom",
		KeyFunc:   keyFunc,
	})
}
