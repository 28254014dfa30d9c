// Package cache 在 core.Store 之上实现相似推荐结果缓存。
//
// 缓存只是优化：后端读写失败按未命中/跳过处理，从不影响结果正确性。
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/rushteam/itemsim/core"
)

// 默认配置
const (
	DefaultTTL       = 3600 * time.Second
	DefaultKeyPrefix = "similar"
)

// Entry 是一条缓存记录：(BaseID, Limit) -> 有序结果。
// 写入后不再修改，命中时原样返回 Items。
type Entry struct {
	BaseID    core.ItemID           `json:"base_id"`
	Limit     int                   `json:"limit"`
	Items     []core.CandidateScore `json:"items"`
	ExpiresAt time.Time             `json:"expires_at"`
}

// ResultCache 相似推荐结果缓存。不同 limit 独立缓存。
type ResultCache struct {
	store  core.Store
	ttl    time.Duration
	prefix string
	now    func() time.Time
	logger zerolog.Logger
}

// Option ResultCache 配置选项
type Option func(*ResultCache)

// WithTTL 设置默认过期时间
func WithTTL(ttl time.Duration) Option {
	return func(c *ResultCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithKeyPrefix 设置 key 前缀
func WithKeyPrefix(prefix string) Option {
	return func(c *ResultCache) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// WithLogger 设置日志
func WithLogger(logger zerolog.Logger) Option {
	return func(c *ResultCache) {
		c.logger = logger
	}
}

// WithClock 替换时钟（测试用）
func WithClock(now func() time.Time) Option {
	return func(c *ResultCache) {
		c.now = now
	}
}

func NewResultCache(store core.Store, opts ...Option) *ResultCache {
	c := &ResultCache{
		store:  store,
		ttl:    DefaultTTL,
		prefix: DefaultKeyPrefix,
		now:    time.Now,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().Str("component", "cache").Str("backend", store.Name()).Logger()
	return c
}

// Key 返回缓存 key：{prefix}:{baseID}:{limit}
func (c *ResultCache) Key(baseID core.ItemID, limit int) string {
	return fmt.Sprintf("%s:%d:%d", c.prefix, baseID, limit)
}

// TTL 返回默认过期时间
func (c *ResultCache) TTL() time.Duration { return c.ttl }

// Get 读取缓存。未命中返回 (nil, false, nil)；
// 后端错误与损坏的记录返回 (nil, false, err)，调用方可按未命中处理。
func (c *ResultCache) Get(ctx context.Context, baseID core.ItemID, limit int) ([]core.CandidateScore, bool, error) {
	raw, err := c.store.Get(ctx, c.Key(baseID, limit))
	if core.IsStoreNotFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, core.NewUnavailable(core.ModuleCache, err)
	}

	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, false, fmt.Errorf("cache: decode %s: %w", c.Key(baseID, limit), err)
	}
	// 后端 TTL 之外再按 ExpiresAt 判断一次，兼容不支持 TTL 的后端
	if !e.ExpiresAt.IsZero() && c.now().After(e.ExpiresAt) {
		return nil, false, nil
	}
	if e.Items == nil {
		e.Items = []core.CandidateScore{}
	}
	return e.Items, true, nil
}

// Set 写入缓存；ttl <= 0 时使用默认 TTL。并发写入同一 key 时后写覆盖先写。
func (c *ResultCache) Set(ctx context.Context, baseID core.ItemID, limit int, items []core.CandidateScore, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}
	if items == nil {
		items = []core.CandidateScore{}
	}
	raw, err := json.Marshal(Entry{
		BaseID:    baseID,
		Limit:     limit,
		Items:     items,
		ExpiresAt: c.now().Add(ttl),
	})
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", c.Key(baseID, limit), err)
	}
	seconds := int(ttl / time.Second)
	if seconds <= 0 {
		seconds = 1
	}
	if err := c.store.Set(ctx, c.Key(baseID, limit), raw, seconds); err != nil {
		return core.NewUnavailable(core.ModuleCache, err)
	}
	return nil
}

// Invalidate 删除某个基准商品在给定 limit 下的缓存（运维用，推荐链路不会调用）。
func (c *ResultCache) Invalidate(ctx context.Context, baseID core.ItemID, limits ...int) error {
	for _, limit := range limits {
		if err := c.store.Delete(ctx, c.Key(baseID, limit)); err != nil {
			return core.NewUnavailable(core.ModuleCache, err)
		}
	}
	c.logger.Debug().Int64("item_id", int64(baseID)).Ints("limits", limits).Msg("cache invalidated")
	return nil
}
