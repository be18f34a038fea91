package recall

import (
	"context"
	"sort"

	"github.com/rushteam/shoprec/core"
)

// Source 表示一个可复用的召回源（用户 CF / 物品 CF / 热门 ...）。
// 召回源同时实现 pipeline.Node，可直接放在 Node 链的首位。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

// sortItems 按分数降序排序，同分按商品 ID 升序。
// 显式 tie-break 保证输出确定、可测试（map 迭代顺序不泄漏到结果里）。
func sortItems(items []*core.Item) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ID < items[j].ID
	})
}
