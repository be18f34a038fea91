package similarity

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rushteam/shoprec/core"
)

// StoreRepository 是基于 core.KeyValueStore 的相似度表适配器。
//
// key 布局：
//   - 用户对：  {KeyPrefix}:user:{a}:{b}   （a < b，JSON 行，覆盖写）
//   - 商品对：  {KeyPrefix}:item:{a}:{b}
//   - 相似商品：{KeyPrefix}:items:{productID}（zset，member = 对端商品，score = 相似度）
//
// 相似商品 zset 在 Upsert 时双向维护，读路径的 FindSimilarItems
// 不需要扫描全量商品对。
type StoreRepository struct {
	store core.KeyValueStore

	KeyPrefix string
}

// NewStoreRepository 创建一个相似度表适配器，keyPrefix 为空时取 "sim"。
func NewStoreRepository(s core.KeyValueStore, keyPrefix string) *StoreRepository {
	if keyPrefix == "" {
		keyPrefix = "sim"
	}
	return &StoreRepository{store: s, KeyPrefix: keyPrefix}
}

func (r *StoreRepository) UpsertUserSimilarity(ctx context.Context, userA, userB string, score float64, algorithm string) error {
	if algorithm == "" {
		algorithm = core.AlgorithmJaccard
	}
	a, b := core.OrderPair(userA, userB)
	row := core.UserSimilarity{
		UserA:     a,
		UserB:     b,
		Score:     score,
		Algorithm: algorithm,
		UpdatedAt: time.Now(),
	}
	data, err := json.Marshal(row)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, r.KeyPrefix+":user:"+a+":"+b, data)
}

func (r *StoreRepository) UpsertItemSimilarity(ctx context.Context, productA, productB string, score float64, simType core.SimilarityType) error {
	if simType == "" {
		simType = core.SimilarityCollaborative
	}
	a, b := core.OrderPair(productA, productB)
	row := core.ItemSimilarity{
		ProductA:     a,
		ProductB:     b,
		Score:        score,
		Type:         simType,
		CalculatedAt: time.Now(),
	}
	data, err := json.Marshal(row)
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, r.KeyPrefix+":item:"+a+":"+b, data); err != nil {
		return err
	}

	// 双向维护相似商品 zset，供 FindSimilarItems 直接读
	if err := r.store.ZAdd(ctx, r.KeyPrefix+":items:"+a, score, b); err != nil {
		return err
	}
	return r.store.ZAdd(ctx, r.KeyPrefix+":items:"+b, score, a)
}

// GetUserSimilarity 读取一对用户的相似度。没有记录时返回 0，不视为错误。
func (r *StoreRepository) GetUserSimilarity(ctx context.Context, userA, userB string) (float64, error) {
	a, b := core.OrderPair(userA, userB)
	data, err := r.store.Get(ctx, r.KeyPrefix+":user:"+a+":"+b)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	var row core.UserSimilarity
	if err := json.Unmarshal(data, &row); err != nil {
		return 0, err
	}
	return row.Score, nil
}

// FindSimilarItems 返回与 productID 相似度 >= minScore 的商品，分数降序，至多 limit 个。
func (r *StoreRepository) FindSimilarItems(ctx context.Context, productID string, minScore float64, limit int) ([]core.SimilarItem, error) {
	key := r.KeyPrefix + ":items:" + productID
	members, err := r.store.ZRange(ctx, key, 0, int64(limit)-1)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return []core.SimilarItem{}, nil
		}
		return nil, err
	}

	result := make([]core.SimilarItem, 0, len(members))
	for _, member := range members {
		score, err := r.store.ZScore(ctx, key, member)
		if err != nil {
			continue
		}
		if score < minScore {
			// zset 已按分数降序，后面的只会更小
			break
		}
		result = append(result, core.SimilarItem{ProductID: member, Score: score})
	}
	return result, nil
}

var _ core.SimilarityRepository = (*StoreRepository)(nil)
