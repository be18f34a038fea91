package recall

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/utils"
)

// Popular 是热门兜底召回源：没有个性化数据的用户拿到的就是这份榜单。
// 榜单是一个有序集合（score = 热度），由上层应用维护。
type Popular struct {
	Store core.KeyValueStore

	// Key 榜单 key，默认 "popular:products"
	Key string

	// TopK 从榜单取的商品数，默认 100
	TopK int
}

func (r *Popular) Name() string        { return "recall.popular" }
func (r *Popular) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 pipeline.Node，忽略输入 items。
func (r *Popular) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *Popular) Recall(
	ctx context.Context,
	_ *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Store == nil {
		return nil, nil
	}
	key := r.Key
	if key == "" {
		key = "popular:products"
	}
	topK := r.TopK
	if topK <= 0 {
		topK = 100
	}

	members, err := r.Store.ZRange(ctx, key, 0, int64(topK)-1)
	if err != nil {
		return nil, err
	}

	out := make([]*core.Item, 0, len(members))
	for _, productID := range members {
		it := core.NewItem(productID)
		if score, err := r.Store.ZScore(ctx, key, productID); err == nil {
			it.Score = score
		}
		it.PutLabel("recall_source", utils.Label{Value: "popular", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

var _ Source = (*Popular)(nil)
var _ Source = (*UserCF)(nil)
var _ Source = (*ItemCF)(nil)
