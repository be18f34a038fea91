package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/rushteam/shoprec/core"
)

// RecommendationCache 是推荐结果的 TTL 缓存，挡在打分/融合链路前面。
//
// key 布局：{KeyPrefix}:{userID}:{strategy}:{limit}
// 用户 ID 紧跟命名空间，Invalidate 用一次前缀扫描就能覆盖该用户
// 所有策略、所有 limit 的条目（pattern delete）。
// 用户 ID 做 query escape 后入 key：ID 里的 ':' 不会让
// 用户 "a" 的前缀扫到用户 "a:b" 的条目。
//
// 并发约定：同一个 key 的并发回源会各算各的、后写覆盖先写。
// 计算对同一数据快照是确定性的，后写覆盖不是正确性问题。
// 写入是单 key 原子替换，不存在半写的条目。
type RecommendationCache struct {
	store core.KeyValueStore

	KeyPrefix string

	// TTL 条目过期秒数，<= 0 时取 core.DefaultCacheTTL
	TTL int
}

// New 创建一个结果缓存，keyPrefix 为空时取 "rec"。
func New(s core.KeyValueStore, keyPrefix string, ttl int) *RecommendationCache {
	if keyPrefix == "" {
		keyPrefix = "rec"
	}
	if ttl <= 0 {
		ttl = core.DefaultCacheTTL
	}
	return &RecommendationCache{store: s, KeyPrefix: keyPrefix, TTL: ttl}
}

func (c *RecommendationCache) key(strategy core.Strategy, userID string, limit int) string {
	return fmt.Sprintf("%s:%s:%s:%d", c.KeyPrefix, url.QueryEscape(userID), strategy, limit)
}

// Get 读取缓存。命中时返回 (结果, true)，未命中或读取失败返回 (nil, false)。
// 命中的结果原样返回，不做二次过滤——TTL 或显式失效之前的陈旧窗口是约定行为。
func (c *RecommendationCache) Get(ctx context.Context, strategy core.Strategy, userID string, limit int) ([]core.RecommendationScore, bool) {
	data, err := c.store.Get(ctx, c.key(strategy, userID, limit))
	if err != nil {
		return nil, false
	}
	var scores []core.RecommendationScore
	if err := json.Unmarshal(data, &scores); err != nil {
		return nil, false
	}
	return scores, true
}

// Set 写入缓存（原子替换 + TTL）。
func (c *RecommendationCache) Set(ctx context.Context, strategy core.Strategy, userID string, limit int, scores []core.RecommendationScore) error {
	data, err := json.Marshal(scores)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, c.key(strategy, userID, limit), data, c.TTL)
}

// Invalidate 删除某个用户的全部缓存条目（跨策略、跨 limit）。
func (c *RecommendationCache) Invalidate(ctx context.Context, userID string) error {
	keys, err := c.store.Keys(ctx, c.KeyPrefix+":"+url.QueryEscape(userID)+":")
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := c.store.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}
