package middleware

import (
	"bytes"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// 缓存条目
type cacheEntry struct {
	Content    []byte
	Expiration time.Time
}

// 内存缓存
type memoryCache struct {
	sync.RWMutex
	items map[string]cacheEntry
}

// 全局缓存实例
var cache = &memoryCache{
	items: make(map[string]cacheEntry),
}

// CacheConfig 缓存配置
type CacheConfig struct {
	Expiration time.Duration             // 缓存过期时间
	KeyFunc    func(*gin.Context) string // 自定义缓存键生成函数
}

// DefaultCacheConfig 默认缓存配置
var DefaultCacheConfig = CacheConfig{
	Expiration: time.Minute,
	KeyFunc:    defaultKeyFunc,
}

// defaultKeyFunc keys by path and sorted query so PurgeCacheByPrefix can
// drop every entry under a path
func defaultKeyFunc(c *gin.Context) string {
	query := c.Request.URL.Query()
	keys := make([]string, 0, len(query))
	for key := range query {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(c.Request.URL.Path)
	b.WriteByte('?')
	for _, key := range keys {
		values := query[key]
		sort.Strings(values)
		for _, value := range values {
			b.WriteString(key + "=" + value + "&")
		}
	}
	return b.String()
}

// Cache 创建GET响应缓存中间件
func Cache(config ...CacheConfig) gin.HandlerFunc {
	cfg := DefaultCacheConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Expiration <= 0 {
		cfg.Expiration = DefaultCacheConfig.Expiration
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = DefaultCacheConfig.KeyFunc
	}

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := cfg.KeyFunc(c)
		now := time.Now()

		cache.RLock()
		entry, found := cache.items[key]
		cache.RUnlock()

		if found && entry.Expiration.After(now) {
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, "application/json; charset=utf-8", entry.Content)
			c.Abort()
			return
		}

		// 缓存未命中，捕获响应
		writer := &responseWriter{
			ResponseWriter: c.Writer,
			body:           &bytes.Buffer{},
		}
		c.Writer = writer
		c.Header("X-Cache", "MISS")

		c.Next()

		if c.Writer.Status() == http.StatusOK {
			cache.Lock()
			cache.items[key] = cacheEntry{
				Content:    writer.body.Bytes(),
				Expiration: now.Add(cfg.Expiration),
			}
			cache.cleanExpiredLocked(now)
			cache.Unlock()
		}
	}
}

// PurgeCache 清除所有缓存
func PurgeCache() {
	cache.Lock()
	cache.items = make(map[string]cacheEntry)
	cache.Unlock()
}

// PurgeCacheByPrefix 根据路径前缀清除缓存
func PurgeCacheByPrefix(prefix string) {
	cache.Lock()
	defer cache.Unlock()

	for key := range cache.items {
		if strings.HasPrefix(key, prefix) {
			delete(cache.items, key)
		}
	}
}

// PurgeOnSuccess drops cached GETs under prefix after a successful mutation
func PurgeOnSuccess(prefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if c.Writer.Status() < http.StatusBadRequest {
			PurgeCacheByPrefix(prefix)
		}
	}
}

// 自定义响应写入器，用于捕获响应内容
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// CacheStats 获取缓存统计信息
func CacheStats() map[string]interface{} {
	cache.RLock()
	defer cache.RUnlock()

	now := time.Now()
	expired := 0
	size := 0
	for _, entry := range cache.items {
		size += len(entry.Content)
		if entry.Expiration.Before(now) {
			expired++
		}
	}
	return map[string]interface{}{
		"total_items": len(cache.items),
		"expired":     expired,
		"bytes":       size,
	}
}

// cleanExpiredLocked 清理过期缓存, 调用方持有写锁
func (m *memoryCache) cleanExpiredLocked(now time.Time) {
	for key, entry := range m.items {
		if entry.Expiration.Before(now) {
			delete(m.items, key)
		}
	}
}
