package behavior

import (
	"context"
	"encoding/json"
	"math"
	"sync"

	"github.com/rushteam/shoprec/core"
)

// StoreRepository 是基于 core.KeyValueStore 的行为日志适配器。
//
// key 布局：
//   - 用户行为日志：{KeyPrefix}:user:{userID}      （JSON 数组，追加写）
//   - 商品行为日志：{KeyPrefix}:product:{productID}
//   - 用户活跃度：  {KeyPrefix}:active:users        （zset，score = 行为数）
//   - 商品活跃度：  {KeyPrefix}:active:products
//
// 行为日志 append-only：Record 只追加，本模块从不修改或删除已有事件。
// 追加是读改写（Get → append → Set），mu 把同进程内的并发 Record 串行化；
// 多实例部署时同一条日志 key 需要单写者。
type StoreRepository struct {
	store core.KeyValueStore

	KeyPrefix string

	mu sync.Mutex
}

// NewStoreRepository 创建一个行为日志适配器，keyPrefix 为空时取 "behavior"。
func NewStoreRepository(s core.KeyValueStore, keyPrefix string) *StoreRepository {
	if keyPrefix == "" {
		keyPrefix = "behavior"
	}
	return &StoreRepository{store: s, KeyPrefix: keyPrefix}
}

func (r *StoreRepository) ListByUser(ctx context.Context, userID string) ([]core.BehaviorEvent, error) {
	return r.listEvents(ctx, r.KeyPrefix+":user:"+userID)
}

func (r *StoreRepository) ListByProduct(ctx context.Context, productID string) ([]core.BehaviorEvent, error) {
	return r.listEvents(ctx, r.KeyPrefix+":product:"+productID)
}

func (r *StoreRepository) listEvents(ctx context.Context, key string) ([]core.BehaviorEvent, error) {
	data, err := r.store.Get(ctx, key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return []core.BehaviorEvent{}, nil
		}
		return nil, err
	}

	var events []core.BehaviorEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// ListActiveUsers 返回行为数严格大于 minEvents 的用户。
// 活跃度计数是整数，下界取 minEvents+1 即为"严格大于"。
func (r *StoreRepository) ListActiveUsers(ctx context.Context, minEvents int) ([]string, error) {
	return r.store.ZRangeByScore(ctx, r.KeyPrefix+":active:users", float64(minEvents+1), math.Inf(1))
}

func (r *StoreRepository) ListActiveProducts(ctx context.Context, minEvents int) ([]string, error) {
	return r.store.ZRangeByScore(ctx, r.KeyPrefix+":active:products", float64(minEvents+1), math.Inf(1))
}

// Record 追加一条行为事件：写入用户日志与商品日志，并递增两端的活跃度计数。
// 纯搜索事件（ProductID 为空）只进用户侧。
func (r *StoreRepository) Record(ctx context.Context, event core.BehaviorEvent) error {
	if event.UserID == "" {
		return core.NewInvalidInput(core.ModuleBehavior, "behavior: user id is required")
	}
	if !event.Type.Valid() {
		return core.NewInvalidInput(core.ModuleBehavior, "behavior: unknown behavior type "+string(event.Type))
	}

	if err := r.appendEvent(ctx, r.KeyPrefix+":user:"+event.UserID, event); err != nil {
		return err
	}
	if err := r.store.ZIncrBy(ctx, r.KeyPrefix+":active:users", 1, event.UserID); err != nil {
		return err
	}

	if event.ProductID == "" {
		return nil
	}
	if err := r.appendEvent(ctx, r.KeyPrefix+":product:"+event.ProductID, event); err != nil {
		return err
	}
	return r.store.ZIncrBy(ctx, r.KeyPrefix+":active:products", 1, event.ProductID)
}

func (r *StoreRepository) appendEvent(ctx context.Context, key string, event core.BehaviorEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	events, err := r.listEvents(ctx, key)
	if err != nil {
		return err
	}
	events = append(events, event)
	data, err := json.Marshal(events)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, key, data)
}

// SeedEvents 批量写入行为事件，测试/开发环境造数用。
func (r *StoreRepository) SeedEvents(ctx context.Context, events []core.BehaviorEvent) error {
	for _, ev := range events {
		if err := r.Record(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

var _ core.BehaviorRepository = (*StoreRepository)(nil)
