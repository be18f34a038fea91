package store

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/rushteam/shoprec/core"
)

func TestMemoryStoreGetSet(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryStore()
	defer ms.Close()

	if _, err := ms.Get(ctx, "missing"); !core.IsStoreNotFound(err) {
		t.Errorf("Get(missing) err = %v, want ErrStoreNotFound", err)
	}

	if err := ms.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := ms.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Errorf("Get(k) = (%q, %v), want v", got, err)
	}

	if err := ms.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := ms.Get(ctx, "k"); !core.IsStoreNotFound(err) {
		t.Errorf("Get after delete err = %v, want ErrStoreNotFound", err)
	}
}

func TestMemoryStoreTTL(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryStore()
	defer ms.Close()

	if err := ms.Set(ctx, "short", []byte("v"), 1); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := ms.Get(ctx, "short"); err != nil {
		t.Fatalf("fresh key should be readable: %v", err)
	}

	time.Sleep(1100 * time.Millisecond)
	if _, err := ms.Get(ctx, "short"); !core.IsStoreNotFound(err) {
		t.Errorf("expired key err = %v, want ErrStoreNotFound", err)
	}
}

func TestMemoryStoreZSet(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryStore()
	defer ms.Close()

	if err := ms.ZAdd(ctx, "z", 1.0, "a"); err != nil {
		t.Fatal(err)
	}
	if err := ms.ZAdd(ctx, "z", 3.0, "b"); err != nil {
		t.Fatal(err)
	}
	if err := ms.ZIncrBy(ctx, "z", 2.0, "a"); err != nil {
		t.Fatal(err)
	}
	if err := ms.ZAdd(ctx, "z", 0.5, "c"); err != nil {
		t.Fatal(err)
	}

	// a=3.0, b=3.0, c=0.5：分数降序，同分按 member 升序
	members, err := ms.ZRange(ctx, "z", 0, -1)
	if err != nil {
		t.Fatalf("ZRange: %v", err)
	}
	if !reflect.DeepEqual(members, []string{"a", "b", "c"}) {
		t.Errorf("ZRange = %v, want [a b c]", members)
	}

	top, err := ms.ZRange(ctx, "z", 0, 0)
	if err != nil || !reflect.DeepEqual(top, []string{"a"}) {
		t.Errorf("ZRange(0,0) = (%v, %v), want [a]", top, err)
	}

	score, err := ms.ZScore(ctx, "z", "a")
	if err != nil || score != 3.0 {
		t.Errorf("ZScore(a) = (%v, %v), want 3.0", score, err)
	}
	if _, err := ms.ZScore(ctx, "z", "ghost"); !core.IsStoreNotFound(err) {
		t.Errorf("ZScore(ghost) err = %v, want ErrStoreNotFound", err)
	}

	inRange, err := ms.ZRangeByScore(ctx, "z", 1.0, 10.0)
	if err != nil || !reflect.DeepEqual(inRange, []string{"a", "b"}) {
		t.Errorf("ZRangeByScore = (%v, %v), want [a b]", inRange, err)
	}
}

func TestMemoryStoreKeys(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryStore()
	defer ms.Close()

	for _, k := range []string{"rec:alice:hybrid:10", "rec:alice:user-based:5", "rec:bob:hybrid:10", "other:key"} {
		if err := ms.Set(ctx, k, []byte("x")); err != nil {
			t.Fatal(err)
		}
	}

	keys, err := ms.Keys(ctx, "rec:alice:")
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	want := []string{"rec:alice:hybrid:10", "rec:alice:user-based:5"}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("Keys = %v, want %v", keys, want)
	}
}

func TestMemoryStoreBatch(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryStore()
	defer ms.Close()

	if err := ms.BatchSet(ctx, map[string][]byte{"a": []byte("1"), "b": []byte("2")}); err != nil {
		t.Fatalf("BatchSet: %v", err)
	}
	got, err := ms.BatchGet(ctx, []string{"a", "b", "missing"})
	if err != nil {
		t.Fatalf("BatchGet: %v", err)
	}
	if len(got) != 2 || string(got["a"]) != "1" || string(got["b"]) != "2" {
		t.Errorf("BatchGet = %v", got)
	}
}
