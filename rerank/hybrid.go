package rerank

import (
	"sort"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/utils"
)

// Merge 把用户 CF 和物品 CF 两条召回结果线性融合为一条：
//
//	combined[p] = userWeight * userScore[p] + itemWeight * itemScore[p]
//
// 两边都出现的商品贡献相加（不覆盖）。固定权重、无学习参数，结果可审计。
// 纯函数：给定相同输入，输出的顺序与分数完全一致。
//
// 输出按分数降序、同分按商品 ID 升序；limit > 0 时截断到 limit。
func Merge(userBased, itemBased []*core.Item, userWeight, itemWeight float64, limit int) []*core.Item {
	if userWeight <= 0 {
		userWeight = core.DefaultUserWeight
	}
	if itemWeight <= 0 {
		itemWeight = core.DefaultItemWeight
	}

	merged := make(map[string]*core.Item, len(userBased)+len(itemBased))
	accumulate(merged, userBased, userWeight, "user_cf")
	accumulate(merged, itemBased, itemWeight, "item_cf")

	out := make([]*core.Item, 0, len(merged))
	for _, it := range merged {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func accumulate(merged map[string]*core.Item, items []*core.Item, weight float64, source string) {
	for _, src := range items {
		if src == nil {
			continue
		}
		it, ok := merged[src.ID]
		if !ok {
			it = core.NewItem(src.ID)
			merged[src.ID] = it
		}
		it.Score += weight * src.Score
		it.PutLabel("blend_source", utils.Label{Value: source, Source: "rerank"})
		for k, v := range src.Labels {
			it.PutLabel(k, v)
		}
	}
}
