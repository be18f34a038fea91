package recall

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/rushteam/shoprec/behavior"
	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/store"
)

func seedRepo(t *testing.T, events []core.BehaviorEvent) (*behavior.StoreRepository, func()) {
	t.Helper()
	kv := store.NewMemoryStore()
	repo := behavior.NewStoreRepository(kv, "")
	now := time.Now()
	for i := range events {
		if events[i].Timestamp.IsZero() {
			events[i].Timestamp = now.Add(time.Duration(i) * time.Second)
		}
	}
	if err := repo.SeedEvents(context.Background(), events); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return repo, func() { kv.Close() }
}

func TestUserCFRecall(t *testing.T) {
	// 目标用户 u 买过 {p1,p2}；邻居 n 的商品集是 {p1,p2,p3,p4}，
	// Jaccard = 2/4 = 0.5，且 n 有 6 件行为（过活跃度下限）。
	// 预期：p3、p4 各得 0.5 * 1.0 = 0.5，p1/p2 不出现。
	events := []core.BehaviorEvent{
		{UserID: "u", ProductID: "p1", Type: core.BehaviorPurchase},
		{UserID: "u", ProductID: "p2", Type: core.BehaviorPurchase},
		{UserID: "n", ProductID: "p1", Type: core.BehaviorPurchase},
		{UserID: "n", ProductID: "p2", Type: core.BehaviorPurchase},
		{UserID: "n", ProductID: "p3", Type: core.BehaviorPurchase},
		{UserID: "n", ProductID: "p4", Type: core.BehaviorPurchase},
		{UserID: "n", ProductID: "p1", Type: core.BehaviorView},
		{UserID: "n", ProductID: "p2", Type: core.BehaviorView},
		// x 足够活跃但商品集完全不相交，相似度 0，不做邻居
		{UserID: "x", ProductID: "q1", Type: core.BehaviorView},
		{UserID: "x", ProductID: "q2", Type: core.BehaviorView},
		{UserID: "x", ProductID: "q3", Type: core.BehaviorView},
		{UserID: "x", ProductID: "q4", Type: core.BehaviorView},
		{UserID: "x", ProductID: "q5", Type: core.BehaviorView},
		{UserID: "x", ProductID: "q6", Type: core.BehaviorView},
	}
	repo, cleanup := seedRepo(t, events)
	defer cleanup()

	src := &UserCF{Behaviors: repo}
	items, err := src.Recall(context.Background(), &core.RecommendContext{UserID: "u"})
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("got %d items, want 2: %+v", len(items), items)
	}
	// 同分 0.5：按商品 ID 升序 tie-break
	if items[0].ID != "p3" || items[1].ID != "p4" {
		t.Errorf("order = [%s %s], want [p3 p4]", items[0].ID, items[1].ID)
	}
	for _, it := range items {
		if math.Abs(it.Score-0.5) > 1e-9 {
			t.Errorf("%s score = %v, want 0.5", it.ID, it.Score)
		}
		if it.ID == "p1" || it.ID == "p2" {
			t.Errorf("self-recommendation: %s already touched by u", it.ID)
		}
	}
}

func TestUserCFZeroBehaviorUser(t *testing.T) {
	repo, cleanup := seedRepo(t, []core.BehaviorEvent{
		{UserID: "other", ProductID: "p1", Type: core.BehaviorView},
	})
	defer cleanup()

	src := &UserCF{Behaviors: repo}
	items, err := src.Recall(context.Background(), &core.RecommendContext{UserID: "nobody"})
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("zero-behavior user got %d items, want 0", len(items))
	}
}

func TestUserCFActivityFloor(t *testing.T) {
	// 邻居只有 3 件行为，不过活跃度下限，不产生候选
	events := []core.BehaviorEvent{
		{UserID: "u", ProductID: "p1", Type: core.BehaviorPurchase},
		{UserID: "sparse", ProductID: "p1", Type: core.BehaviorPurchase},
		{UserID: "sparse", ProductID: "p2", Type: core.BehaviorPurchase},
		{UserID: "sparse", ProductID: "p3", Type: core.BehaviorPurchase},
	}
	repo, cleanup := seedRepo(t, events)
	defer cleanup()

	src := &UserCF{Behaviors: repo}
	items, err := src.Recall(context.Background(), &core.RecommendContext{UserID: "u"})
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("sparse neighbor should not contribute, got %+v", items)
	}
}
