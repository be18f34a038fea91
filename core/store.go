package core

import "context"

// Store 是存储的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - 遵循依赖倒置原则：领域层不依赖具体存储后端
//
// 使用场景：
//   - 行为日志、相似度表（behavior / similarity 包的适配器）
//   - 推荐结果缓存（cache 包）
type Store interface {
	// Name 返回存储后端名称（用于日志/监控）
	Name() string

	// Get 读取单个 key 的值
	Get(ctx context.Context, key string) ([]byte, error)

	// Set 写入单个 key-value，ttl 为可选的过期秒数
	Set(ctx context.Context, key string, value []byte, ttl ...int) error

	// Delete 删除单个 key
	Delete(ctx context.Context, key string) error

	// BatchGet 批量读取（减少网络往返）
	BatchGet(ctx context.Context, keys []string) (map[string][]byte, error)

	// BatchSet 批量写入
	BatchSet(ctx context.Context, kvs map[string][]byte, ttl ...int) error

	// Close 关闭连接/释放资源
	Close() error
}

// KeyValueStore 是 Store 的扩展接口，支持有序集合与前缀扫描。
//
// 扩展功能：
//   - 有序集合：活跃度计数、相似商品表、热门榜
//   - Keys：按前缀批量失效缓存（pattern delete）
type KeyValueStore interface {
	Store

	// ZAdd 向有序集合写入成员分数（覆盖写）
	ZAdd(ctx context.Context, key string, score float64, member string) error

	// ZIncrBy 对有序集合成员的分数做增量（成员不存在时从 0 开始）
	ZIncrBy(ctx context.Context, key string, delta float64, member string) error

	// ZRange 按分数降序获取有序集合成员（[start, stop] 闭区间下标）
	ZRange(ctx context.Context, key string, start, stop int64) ([]string, error)

	// ZRangeByScore 按分数降序获取分数落在 [min, max] 的成员
	ZRangeByScore(ctx context.Context, key string, min, max float64) ([]string, error)

	// ZScore 获取成员的分数
	ZScore(ctx context.Context, key string, member string) (float64, error)

	// Keys 返回所有以 prefix 开头的 key（用于按用户维度批量删除）
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Store 错误定义（使用统一的 DomainError）
var (
	// ErrStoreNotFound 表示 key 不存在
	ErrStoreNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: key not found")

	// ErrStoreNotSupported 表示操作不支持
	ErrStoreNotSupported = NewDomainError(ModuleStore, ErrorCodeNotSupported, "store: operation not supported")
)

// IsStoreNotFound 检查错误是否为 key 不存在。
func IsStoreNotFound(err error) bool {
	domainErr := GetDomainError(err)
	if domainErr != nil && domainErr.Module == ModuleStore {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}
