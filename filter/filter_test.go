package filter

import (
	"context"
	"testing"

	"github.com/rushteam/shoprec/behavior"
	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/utils"
	"github.com/rushteam/shoprec/store"
)

func seededBehaviors(t *testing.T) (core.BehaviorRepository, func()) {
	t.Helper()
	kv := store.NewMemoryStore()
	repo := behavior.NewStoreRepository(kv, "")
	events := []core.BehaviorEvent{
		{UserID: "alice", ProductID: "p1", Type: core.BehaviorPurchase},
		{UserID: "alice", ProductID: "p2", Type: core.BehaviorView},
	}
	if err := repo.SeedEvents(context.Background(), events); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return repo, func() { kv.Close() }
}

func TestInteractedFilterPurchasedOnly(t *testing.T) {
	repo, cleanup := seededBehaviors(t)
	defer cleanup()

	ctx := context.Background()
	rctx := &core.RecommendContext{UserID: "alice"}
	f := NewInteractedFilter(repo, true)

	// 已购买的 p1 过滤，只浏览过的 p2 放行
	cases := []struct {
		id   string
		want bool
	}{
		{"p1", true},
		{"p2", false},
		{"p9", false},
	}
	for _, c := range cases {
		got, err := f.ShouldFilter(ctx, rctx, core.NewItem(c.id))
		if err != nil {
			t.Fatalf("ShouldFilter(%s): %v", c.id, err)
		}
		if got != c.want {
			t.Errorf("ShouldFilter(%s) = %v, want %v", c.id, got, c.want)
		}
	}
}

func TestInteractedFilterAllBehaviors(t *testing.T) {
	repo, cleanup := seededBehaviors(t)
	defer cleanup()

	f := NewInteractedFilter(repo, false)
	rctx := &core.RecommendContext{UserID: "alice"}
	for _, id := range []string{"p1", "p2"} {
		got, err := f.ShouldFilter(context.Background(), rctx, core.NewItem(id))
		if err != nil || !got {
			t.Errorf("ShouldFilter(%s) = (%v, %v), want filtered", id, got, err)
		}
	}
}

func TestRuleFilter(t *testing.T) {
	f, err := NewRuleFilter(`item.score < 0.2`)
	if err != nil {
		t.Fatalf("NewRuleFilter: %v", err)
	}

	low := core.NewItem("p1")
	low.Score = 0.1
	high := core.NewItem("p2")
	high.Score = 0.9

	rctx := &core.RecommendContext{UserID: "alice"}
	if got, _ := f.ShouldFilter(context.Background(), rctx, low); !got {
		t.Error("score 0.1 should be filtered")
	}
	if got, _ := f.ShouldFilter(context.Background(), rctx, high); got {
		t.Error("score 0.9 should pass")
	}
}

func TestRuleFilterCompileError(t *testing.T) {
	if _, err := NewRuleFilter(`item.score <<< `); err == nil {
		t.Fatal("invalid expression must fail at compile time")
	}
}

func TestRuleFilterLabels(t *testing.T) {
	f, err := NewRuleFilter(`label.recall_source == "popular"`)
	if err != nil {
		t.Fatalf("NewRuleFilter: %v", err)
	}

	tagged := core.NewItem("p1")
	tagged.PutLabel("recall_source", utils.Label{Value: "popular", Source: "recall"})
	plain := core.NewItem("p2")

	rctx := &core.RecommendContext{UserID: "alice"}
	if got, _ := f.ShouldFilter(context.Background(), rctx, tagged); !got {
		t.Error("popular-labelled item should be filtered")
	}
	if got, _ := f.ShouldFilter(context.Background(), rctx, plain); got {
		t.Error("unlabelled item should pass")
	}
}

func TestNodeComposition(t *testing.T) {
	repo, cleanup := seededBehaviors(t)
	defer cleanup()

	rf, err := NewRuleFilter(`item.score < 0.2`)
	if err != nil {
		t.Fatalf("NewRuleFilter: %v", err)
	}
	node := &Node{Filters: []Filter{NewInteractedFilter(repo, true), rf}}

	purchased := core.NewItem("p1")
	purchased.Score = 0.9
	weak := core.NewItem("p3")
	weak.Score = 0.1
	ok := core.NewItem("p4")
	ok.Score = 0.7

	out, err := node.Process(context.Background(), &core.RecommendContext{UserID: "alice"}, []*core.Item{purchased, weak, ok})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(out) != 1 || out[0].ID != "p4" {
		t.Errorf("surviving items = %+v, want [p4]", out)
	}
}
