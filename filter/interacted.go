package filter

import (
	"context"

	"github.com/rushteam/shoprec/core"
)

// InteractedFilter 过滤掉用户已经交互过的商品，保证不出现自我推荐。
// PurchasedOnly 为 true 时只挡已购买的商品（召回侧已排掉全部触达商品，
// 这里是对已购商品的最后一道闸）。
//
// 过滤器实例是请求级的：用户行为集在首次调用时加载一次，之后复用。
type InteractedFilter struct {
	Behaviors core.BehaviorRepository

	// PurchasedOnly 只过滤购买行为触达的商品
	PurchasedOnly bool

	loaded  bool
	touched map[string]struct{}
}

func NewInteractedFilter(behaviors core.BehaviorRepository, purchasedOnly bool) *InteractedFilter {
	return &InteractedFilter{Behaviors: behaviors, PurchasedOnly: purchasedOnly}
}

func (f *InteractedFilter) Name() string {
	return "filter.interacted"
}

func (f *InteractedFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil || rctx == nil || rctx.UserID == "" || f.Behaviors == nil {
		return false, nil
	}

	if !f.loaded {
		events, err := f.Behaviors.ListByUser(ctx, rctx.UserID)
		if err != nil {
			// 行为取不到时放行，降级交给上层
			return false, nil
		}
		f.touched = make(map[string]struct{}, len(events))
		for _, ev := range events {
			if ev.ProductID == "" {
				continue
			}
			if f.PurchasedOnly && ev.Type != core.BehaviorPurchase {
				continue
			}
			f.touched[ev.ProductID] = struct{}{}
		}
		f.loaded = true
	}

	_, ok := f.touched[item.ID]
	return ok, nil
}

var _ Filter = (*InteractedFilter)(nil)
