package utils

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/patrickmn/go-cache"
)

// Cache 全局缓存实例（电影详情等跨请求复用的数据）
var Cache *cache.Cache

// InitCache 初始化缓存
func InitCache(defaultTTL time.Duration) {
	// 清理间隔取有效期的两倍，避免过于频繁的扫描
	Cache = cache.New(defaultTTL, defaultTTL*2)
}

// CacheGet 获取缓存值
func CacheGet(key string) (interface{}, bool) {
	return Cache.Get(key)
}

// CacheSet 设置缓存值
func CacheSet(key string, value interface{}, duration time.Duration) {
	Cache.Set(key, value, duration)
}

// CacheDelete 删除缓存
func CacheDelete(key string) {
	Cache.Delete(key)
}

// CacheItem 包装实际的数据，增加过期时间
type CacheItem[T any] struct {
	Value     T
	ExpiredAt time.Time
}

// ReportCache 统计报告缓存封装
// 同一 username:year 的重复请求在有效期内直接命中，不再触发抓取
type ReportCache[T any] struct {
	storage *lru.Cache[string, CacheItem[T]]
	ttl     time.Duration
}

// NewReportCache 初始化，size 是最大缓存条数，ttl 是数据有效期
func NewReportCache[T any](size int, ttl time.Duration) *ReportCache[T] {
	// lru.New 是线程安全的
	c, _ := lru.New[string, CacheItem[T]](size)
	return &ReportCache[T]{
		storage: c,
		ttl:     ttl,
	}
}

// Set 写入（LRU 中 Add 会自动处理更新）
func (c *ReportCache[T]) Set(key string, value T) {
	item := CacheItem[T]{
		Value:     value,
		ExpiredAt: time.Now().Add(c.ttl),
	}
	c.storage.Add(key, item)
}

// Get 读取（带过期检查）
func (c *ReportCache[T]) Get(key string) (T, bool) {
	var zero T
	item, ok := c.storage.Get(key)
	if !ok {
		return zero, false
	}

	// 检查是否过期
	if time.Now().After(item.ExpiredAt) {
		c.storage.Remove(key)
		return zero, false
	}

	return item.Value, true
}

// Delete 删除
func (c *ReportCache[T]) Delete(key string) {
	c.storage.Remove(key)
}

// Len 当前缓存条数
func (c *ReportCache[T]) Len() int {
	return c.storage.Len()
}
