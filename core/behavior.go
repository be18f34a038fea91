package core

import (
	"context"
	"time"
)

// BehaviorType 是用户行为类型，不同行为表达的兴趣强度不同。
type BehaviorType string

const (
	BehaviorView     BehaviorType = "view"
	BehaviorClick    BehaviorType = "click"
	BehaviorCart     BehaviorType = "cart"
	BehaviorFavorite BehaviorType = "favorite"
	BehaviorPurchase BehaviorType = "purchase"
	BehaviorSearch   BehaviorType = "search"
)

// Valid 判断是否是已知的行为类型。
func (t BehaviorType) Valid() bool {
	switch t {
	case BehaviorView, BehaviorClick, BehaviorCart, BehaviorFavorite, BehaviorPurchase, BehaviorSearch:
		return true
	}
	return false
}

// Weight 返回行为类型对应的兴趣权重。
// 购买是最强信号（1.0），加购次之（0.8），浏览（0.5），其余行为 0.3。
func (t BehaviorType) Weight() float64 {
	switch t {
	case BehaviorPurchase:
		return 1.0
	case BehaviorCart:
		return 0.8
	case BehaviorView:
		return 0.5
	default:
		return 0.3
	}
}

// BehaviorEvent 是一条用户行为事件。ProductID 可为空（纯搜索行为）。
type BehaviorEvent struct {
	UserID     string       `json:"user_id"`
	ProductID  string       `json:"product_id,omitempty"`
	CategoryID string       `json:"category_id,omitempty"`
	Type       BehaviorType `json:"type"`
	Timestamp  time.Time    `json:"timestamp"`
}

// BehaviorRepository 是行为日志的存取抽象，推荐链路只依赖这一层。
type BehaviorRepository interface {
	// ListByUser 返回用户的全部行为事件；未知用户返回空列表，不报错
	ListByUser(ctx context.Context, userID string) ([]BehaviorEvent, error)

	// ListByProduct 返回商品上的全部行为事件
	ListByProduct(ctx context.Context, productID string) ([]BehaviorEvent, error)

	// ListActiveUsers 返回行为数严格大于 minEvents 的用户
	ListActiveUsers(ctx context.Context, minEvents int) ([]string, error)

	// ListActiveProducts 返回行为数严格大于 minEvents 的商品
	ListActiveProducts(ctx context.Context, minEvents int) ([]string, error)

	// Record 追加一条行为事件
	Record(ctx context.Context, event BehaviorEvent) error
}
