package similarity

import (
	"context"
	"math"

	"github.com/rushteam/shoprec/core"
)

// Calculator 负责从行为日志计算相似度，只读、无共享可变状态，
// 不同的 (a, b) 对可以安全并发计算。
type Calculator struct {
	Behaviors core.BehaviorRepository
}

func NewCalculator(behaviors core.BehaviorRepository) *Calculator {
	return &Calculator{Behaviors: behaviors}
}

// UserSimilarity 计算两个用户的 Jaccard 相似度。
// 集合取用户触达过的去重商品集（行为类型不参与，只看有无）；
// 任一侧为空集时返回 0。满足 sim(a,b) == sim(b,a)，结果 ∈ [0,1]。
func (c *Calculator) UserSimilarity(ctx context.Context, userA, userB string) (float64, error) {
	eventsA, err := c.Behaviors.ListByUser(ctx, userA)
	if err != nil {
		return 0, err
	}
	eventsB, err := c.Behaviors.ListByUser(ctx, userB)
	if err != nil {
		return 0, err
	}
	return Jaccard(ProductSet(eventsA), ProductSet(eventsB)), nil
}

// ItemSimilarity 计算两个商品的共现相似度：
// |U_A ∩ U_B| / sqrt(|U_A| * |U_B|)，即二值用户向量上的余弦相似度。
// 任一侧无交互用户时返回 0。
func (c *Calculator) ItemSimilarity(ctx context.Context, productA, productB string) (float64, error) {
	eventsA, err := c.Behaviors.ListByProduct(ctx, productA)
	if err != nil {
		return 0, err
	}
	eventsB, err := c.Behaviors.ListByProduct(ctx, productB)
	if err != nil {
		return 0, err
	}
	return CosineCooccurrence(UserSet(eventsA), UserSet(eventsB)), nil
}

// Jaccard 返回两个集合的交并比。任一集合为空时返回 0（不做除零）。
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// CosineCooccurrence 返回两个集合在二值向量意义下的余弦相似度。
func CosineCooccurrence(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	return float64(inter) / math.Sqrt(float64(len(a))*float64(len(b)))
}

// ProductSet 取事件列表触达的去重商品集，纯搜索事件（无商品）跳过。
func ProductSet(events []core.BehaviorEvent) map[string]struct{} {
	set := make(map[string]struct{}, len(events))
	for _, ev := range events {
		if ev.ProductID == "" {
			continue
		}
		set[ev.ProductID] = struct{}{}
	}
	return set
}

// UserSet 取事件列表的去重用户集。
func UserSet(events []core.BehaviorEvent) map[string]struct{} {
	set := make(map[string]struct{}, len(events))
	for _, ev := range events {
		if ev.UserID == "" {
			continue
		}
		set[ev.UserID] = struct{}{}
	}
	return set
}
