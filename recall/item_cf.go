package recall

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/utils"
)

// ItemCF 是基于物品的协同过滤召回源（Item-based CF）。
//
// 与 UserCF 不同，物品相似度由异步刷新任务预先算好落在相似度表里，
// 读路径只做查表 + 加权累加：
//
//	对目标用户触达过的每个商品 p：
//	  取 p 的相似商品行（分数 >= SimilarityThreshold，至多 MaxSimilarPerItem 条）
//	  score[q] += 行相似度 * 用户在 p 上的行为权重
//
// 目标用户已触达的商品不进候选。相似度行指向已下架商品时照常输出，
// 由上层过滤器对账（悬挂引用不视为错误）。
type ItemCF struct {
	Behaviors    core.BehaviorRepository
	Similarities core.SimilarityRepository

	// SimilarityThreshold 低于该相似度的行不参与打分
	SimilarityThreshold float64

	// MaxSimilarPerItem 每个历史商品取的相似商品行数
	MaxSimilarPerItem int
}

func (r *ItemCF) Name() string        { return "recall.item_cf" }
func (r *ItemCF) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 pipeline.Node，忽略输入 items。
func (r *ItemCF) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *ItemCF) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Behaviors == nil || r.Similarities == nil || rctx == nil || rctx.UserID == "" {
		return nil, nil
	}

	events, err := r.Behaviors.ListByUser(ctx, rctx.UserID)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}

	threshold := r.SimilarityThreshold
	if threshold <= 0 {
		threshold = core.DefaultSimilarityThreshold
	}
	maxPerItem := r.MaxSimilarPerItem
	if maxPerItem <= 0 {
		maxPerItem = core.DefaultMaxSimilarPerItem
	}

	touched := make(map[string]struct{}, len(events))
	for _, ev := range events {
		if ev.ProductID != "" {
			touched[ev.ProductID] = struct{}{}
		}
	}

	scores := make(map[string]float64)
	for _, ev := range events {
		if ev.ProductID == "" {
			continue
		}
		rows, err := r.Similarities.FindSimilarItems(ctx, ev.ProductID, threshold, maxPerItem)
		if err != nil {
			// 单个商品查表失败不拖垮整次召回
			continue
		}
		weight := ev.Type.Weight()
		for _, row := range rows {
			if _, ok := touched[row.ProductID]; ok {
				continue
			}
			scores[row.ProductID] += row.Score * weight
		}
	}

	out := make([]*core.Item, 0, len(scores))
	for productID, score := range scores {
		it := core.NewItem(productID)
		it.Score = score
		it.PutLabel("recall_source", utils.Label{Value: "item_cf", Source: "recall"})
		out = append(out, it)
	}
	sortItems(out)
	return out, nil
}
