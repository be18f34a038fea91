package core

import "github.com/rushteam/shoprec/pkg/utils"

// Strategy 是推荐策略标识，也是缓存 key 的一部分。
type Strategy string

const (
	StrategyUserBased Strategy = "user-based"
	StrategyItemBased Strategy = "item-based"
	StrategyHybrid    Strategy = "hybrid"
	StrategyPopular   Strategy = "popular"
)

// Item 是推荐链路中的统一承载结构。
// Score 用于排序决策；Labels 用于解释与策略驱动，全链路透传。
type Item struct {
	ID     string
	Score  float64
	Meta   map[string]any
	Labels map[string]utils.Label
}

func NewItem(id string) *Item {
	return &Item{
		ID:     id,
		Meta:   make(map[string]any),
		Labels: make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// RecommendationScore 是对外返回的单条推荐结果（请求级临时对象）。
// Score 是未归一化的正实数：多个邻居/行为的贡献直接累加，混合策略再线性加权。
type RecommendationScore struct {
	ProductID string   `json:"product_id"`
	Score     float64  `json:"score"`
	Reason    string   `json:"reason"`
	Strategy  Strategy `json:"strategy"`
}
