package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/shoprec/core"
)

// Config 是引擎的调参配置。所有字段都有合理默认值，
// 零值配置（或缺失的配置文件）会得到与 core 包默认常量一致的引擎。
type Config struct {
	// ActivityFloor 行为数严格大于该值的用户/商品才参与相似度计算
	ActivityFloor int `yaml:"activity_floor"`

	// SimilarityThreshold 邻居/相似商品的最低相似度
	SimilarityThreshold float64 `yaml:"similarity_threshold"`

	// MaxNeighbors 用户 CF 的最大邻居数
	MaxNeighbors int `yaml:"max_neighbors"`

	// MaxSimilarPerItem 物品 CF 每个历史商品取的相似行数
	MaxSimilarPerItem int `yaml:"max_similar_per_item"`

	// CacheTTL 结果缓存过期秒数
	CacheTTL int `yaml:"cache_ttl"`

	// UserWeight / ItemWeight 混合策略线性权重
	UserWeight float64 `yaml:"user_weight"`
	ItemWeight float64 `yaml:"item_weight"`

	// RefreshQueueSize 异步刷新队列容量
	RefreshQueueSize int `yaml:"refresh_queue_size"`

	// RefreshWorkers 异步刷新 worker 数
	RefreshWorkers int `yaml:"refresh_workers"`

	// Rules 运营配置的 CEL 过滤规则，命中即从结果里移除
	Rules []string `yaml:"rules"`

	// Redis 生产环境存储；Addr 为空时由调用方自行注入 Store
	Redis RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr string `yaml:"addr"`
	DB   int    `yaml:"db"`
}

// Default 返回全默认配置。
func Default() *Config {
	cfg := &Config{}
	cfg.Normalize()
	return cfg
}

// Load 从 YAML 文件加载配置；文件不存在时返回默认配置。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Normalize()
	return cfg, nil
}

// Normalize 把零值字段回落到 core 包的默认常量。
func (c *Config) Normalize() {
	if c.ActivityFloor <= 0 {
		c.ActivityFloor = core.DefaultActivityFloor
	}
	if c.SimilarityThreshold <= 0 {
		c.SimilarityThreshold = core.DefaultSimilarityThreshold
	}
	if c.MaxNeighbors <= 0 {
		c.MaxNeighbors = core.DefaultMaxNeighbors
	}
	if c.MaxSimilarPerItem <= 0 {
		c.MaxSimilarPerItem = core.DefaultMaxSimilarPerItem
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = core.DefaultCacheTTL
	}
	if c.UserWeight <= 0 {
		c.UserWeight = core.DefaultUserWeight
	}
	if c.ItemWeight <= 0 {
		c.ItemWeight = core.DefaultItemWeight
	}
	if c.RefreshQueueSize <= 0 {
		c.RefreshQueueSize = core.DefaultRefreshQueueSize
	}
	if c.RefreshWorkers <= 0 {
		c.RefreshWorkers = core.DefaultRefreshWorkers
	}
}
