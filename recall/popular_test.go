package recall

import (
	"context"
	"testing"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/store"
)

func TestPopularRecall(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	defer kv.Close()

	for _, p := range []struct {
		id    string
		score float64
	}{{"hot1", 120}, {"hot2", 90}, {"hot3", 90}, {"cold", 1}} {
		if err := kv.ZAdd(ctx, "popular:products", p.score, p.id); err != nil {
			t.Fatal(err)
		}
	}

	src := &Popular{Store: kv, TopK: 3}
	items, err := src.Recall(ctx, &core.RecommendContext{})
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}
	// hot2/hot3 同分：按 ID 升序
	wantOrder := []string{"hot1", "hot2", "hot3"}
	for i, want := range wantOrder {
		if items[i].ID != want {
			t.Errorf("items[%d] = %s, want %s", i, items[i].ID, want)
		}
	}
	if items[0].Score != 120 {
		t.Errorf("items[0].Score = %v, want 120", items[0].Score)
	}
	if lbl, ok := items[0].Labels["recall_source"]; !ok || lbl.Value != "popular" {
		t.Errorf("recall_source label = %+v, want popular", lbl)
	}
}

func TestPopularEmptyBoard(t *testing.T) {
	kv := store.NewMemoryStore()
	defer kv.Close()

	src := &Popular{Store: kv}
	items, err := src.Recall(context.Background(), &core.RecommendContext{})
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("empty board should yield no items, got %d", len(items))
	}
}
