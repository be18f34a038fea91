package rerank

import (
	"math"
	"reflect"
	"testing"

	"github.com/rushteam/shoprec/core"
)

func item(id string, score float64) *core.Item {
	it := core.NewItem(id)
	it.Score = score
	return it
}

func TestMerge(t *testing.T) {
	// user-based [(p3,0.5)] + item-based [(p3,0.6),(p4,0.4)]，权重 0.6/0.4：
	// p3 = 0.5*0.6 + 0.6*0.4 = 0.54; p4 = 0.4*0.4 = 0.16
	userBased := []*core.Item{item("p3", 0.5)}
	itemBased := []*core.Item{item("p3", 0.6), item("p4", 0.4)}

	out := Merge(userBased, itemBased, 0.6, 0.4, 5)
	if len(out) != 2 {
		t.Fatalf("got %d items, want 2", len(out))
	}
	if out[0].ID != "p3" || math.Abs(out[0].Score-0.54) > 1e-9 {
		t.Errorf("out[0] = %s/%v, want p3/0.54", out[0].ID, out[0].Score)
	}
	if out[1].ID != "p4" || math.Abs(out[1].Score-0.16) > 1e-9 {
		t.Errorf("out[1] = %s/%v, want p4/0.16", out[1].ID, out[1].Score)
	}
}

func TestMergeDeterministic(t *testing.T) {
	userBased := []*core.Item{item("a", 0.3), item("b", 0.3), item("c", 0.1)}
	itemBased := []*core.Item{item("d", 0.45), item("b", 0.2)}

	first := Merge(userBased, itemBased, 0.6, 0.4, 10)
	for i := 0; i < 10; i++ {
		again := Merge(userBased, itemBased, 0.6, 0.4, 10)
		ids := make([]string, len(again))
		firstIDs := make([]string, len(first))
		for j := range again {
			ids[j] = again[j].ID
			firstIDs[j] = first[j].ID
			if again[j].Score != first[j].Score {
				t.Fatalf("score drift on %s: %v != %v", again[j].ID, again[j].Score, first[j].Score)
			}
		}
		if !reflect.DeepEqual(ids, firstIDs) {
			t.Fatalf("order drift: %v != %v", ids, firstIDs)
		}
	}
}

func TestMergeTieBreakAndLimit(t *testing.T) {
	// 同分按商品 ID 升序
	userBased := []*core.Item{item("z", 0.5), item("a", 0.5)}
	out := Merge(userBased, nil, 0.6, 0.4, 10)
	if out[0].ID != "a" || out[1].ID != "z" {
		t.Errorf("tie-break order = [%s %s], want [a z]", out[0].ID, out[1].ID)
	}

	// limit 截断
	out = Merge(userBased, nil, 0.6, 0.4, 1)
	if len(out) != 1 || out[0].ID != "a" {
		t.Errorf("limit=1 → %+v, want [a]", out)
	}
}
