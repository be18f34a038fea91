package core

import (
	"context"
	"time"
)

// SimilarityType 区分商品相似度的来源。
type SimilarityType string

const (
	SimilarityContent       SimilarityType = "content"
	SimilarityCollaborative SimilarityType = "collaborative"
	SimilarityHybrid        SimilarityType = "hybrid"
)

// AlgorithmJaccard 是用户相似度行的算法标识。
const AlgorithmJaccard = "jaccard"

// UserSimilarity 是一对用户的相似度记录，pair 按 OrderPair 归一存储。
type UserSimilarity struct {
	UserA     string    `json:"user_a"`
	UserB     string    `json:"user_b"`
	Score     float64   `json:"score"`
	Algorithm string    `json:"algorithm"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ItemSimilarity 是一对商品的相似度记录。
type ItemSimilarity struct {
	ProductA     string         `json:"product_a"`
	ProductB     string         `json:"product_b"`
	Score        float64        `json:"score"`
	Type         SimilarityType `json:"type"`
	CalculatedAt time.Time      `json:"calculated_at"`
}

// SimilarItem 是 FindSimilarItems 的单条返回。
type SimilarItem struct {
	ProductID string  `json:"product_id"`
	Score     float64 `json:"score"`
}

// OrderPair 把一对 ID 归一成 (小, 大)，保证 (a,b) 与 (b,a) 落同一条记录。
func OrderPair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}

// SimilarityRepository 是相似度表的存取抽象。
// Upsert 覆盖写且幂等，乱序重放不会破坏最终状态。
type SimilarityRepository interface {
	// UpsertUserSimilarity 覆盖写一对用户的相似度
	UpsertUserSimilarity(ctx context.Context, userA, userB string, score float64, algorithm string) error

	// UpsertItemSimilarity 覆盖写一对商品的相似度
	UpsertItemSimilarity(ctx context.Context, productA, productB string, score float64, simType SimilarityType) error

	// GetUserSimilarity 读取一对用户的相似度；没有记录时返回 0，不视为错误
	GetUserSimilarity(ctx context.Context, userA, userB string) (float64, error)

	// FindSimilarItems 返回与 productID 相似度 >= minScore 的商品，
	// 分数降序，至多 limit 个
	FindSimilarItems(ctx context.Context, productID string, minScore float64, limit int) ([]SimilarItem, error)
}
