package recall

import (
	"context"
	"sort"
	"strconv"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/utils"
	"github.com/rushteam/shoprec/similarity"
)

// UserCF 是基于用户的协同过滤召回源（User-based CF）。
//
// 算法流程：
//  1. 取目标用户触达过的商品集
//  2. 在活跃用户（行为数 > ActivityFloor）里逐一算 Jaccard 相似度
//  3. 留下相似度 > SimilarityThreshold 的邻居，降序取前 MaxNeighbors 个
//  4. 累加邻居行为：score[p] += 邻居相似度 * 行为权重，目标用户已触达的商品跳过
//
// 零行为用户直接返回空候选，不是错误。
type UserCF struct {
	Behaviors core.BehaviorRepository

	// ActivityFloor 活跃度下限（行为数严格大于该值的用户才做候选邻居）
	ActivityFloor int

	// SimilarityThreshold 低于该相似度的邻居被丢弃
	SimilarityThreshold float64

	// MaxNeighbors 参与打分的最大邻居数
	MaxNeighbors int
}

func (r *UserCF) Name() string        { return "recall.user_cf" }
func (r *UserCF) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 pipeline.Node，忽略输入 items。
func (r *UserCF) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

type neighbor struct {
	userID string
	score  float64
	events []core.BehaviorEvent
}

func (r *UserCF) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Behaviors == nil || rctx == nil || rctx.UserID == "" {
		return nil, nil
	}

	targetEvents, err := r.Behaviors.ListByUser(ctx, rctx.UserID)
	if err != nil {
		return nil, err
	}
	touched := similarity.ProductSet(targetEvents)
	if len(touched) == 0 {
		return nil, nil
	}

	neighbors, err := r.findNeighbors(ctx, rctx.UserID, touched)
	if err != nil {
		return nil, err
	}

	// 加权累加：score[p] += 邻居相似度 * 行为权重，多个邻居的贡献直接相加
	scores := make(map[string]float64)
	contributors := make(map[string]int)
	for _, nb := range neighbors {
		counted := make(map[string]bool, len(nb.events))
		for _, ev := range nb.events {
			if ev.ProductID == "" {
				continue
			}
			if _, ok := touched[ev.ProductID]; ok {
				continue
			}
			scores[ev.ProductID] += nb.score * ev.Type.Weight()
			if !counted[ev.ProductID] {
				counted[ev.ProductID] = true
				contributors[ev.ProductID]++
			}
		}
	}

	out := make([]*core.Item, 0, len(scores))
	for productID, score := range scores {
		it := core.NewItem(productID)
		it.Score = score
		it.PutLabel("recall_source", utils.Label{Value: "user_cf", Source: "recall"})
		it.PutLabel("neighbor_count", utils.Label{Value: strconv.Itoa(contributors[productID]), Source: "recall"})
		out = append(out, it)
	}
	sortItems(out)
	return out, nil
}

// findNeighbors 在活跃用户里找相似邻居：阈值过滤、降序、截断。
// 邻居的行为列表顺带带出来，打分阶段不再二次拉取。
func (r *UserCF) findNeighbors(ctx context.Context, targetID string, touched map[string]struct{}) ([]neighbor, error) {
	floor := r.ActivityFloor
	if floor <= 0 {
		floor = core.DefaultActivityFloor
	}
	threshold := r.SimilarityThreshold
	if threshold <= 0 {
		threshold = core.DefaultSimilarityThreshold
	}
	maxNeighbors := r.MaxNeighbors
	if maxNeighbors <= 0 {
		maxNeighbors = core.DefaultMaxNeighbors
	}

	candidates, err := r.Behaviors.ListActiveUsers(ctx, floor)
	if err != nil {
		return nil, err
	}

	neighbors := make([]neighbor, 0)
	for _, candidateID := range candidates {
		if candidateID == targetID {
			continue
		}
		events, err := r.Behaviors.ListByUser(ctx, candidateID)
		if err != nil || len(events) == 0 {
			continue
		}
		sim := similarity.Jaccard(touched, similarity.ProductSet(events))
		if sim > threshold {
			neighbors = append(neighbors, neighbor{userID: candidateID, score: sim, events: events})
		}
	}

	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].score != neighbors[j].score {
			return neighbors[i].score > neighbors[j].score
		}
		return neighbors[i].userID < neighbors[j].userID
	})
	if len(neighbors) > maxNeighbors {
		neighbors = neighbors[:maxNeighbors]
	}
	return neighbors, nil
}
