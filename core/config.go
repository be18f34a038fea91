package core

// 引擎默认参数。config 包的零值配置会回落到这里，
// 保证不带配置文件也能得到一个可用的引擎。
const (
	// DefaultActivityFloor 活跃度下限：行为数严格大于该值的用户/商品才参与相似度计算，
	// 避免稀疏样本带来的噪声比较
	DefaultActivityFloor = 5

	// DefaultSimilarityThreshold 相似度阈值：低于该值的邻居/商品不进入候选
	DefaultSimilarityThreshold = 0.1

	// DefaultMaxNeighbors 用户协同过滤保留的最大邻居数
	DefaultMaxNeighbors = 20

	// DefaultMaxSimilarPerItem 物品协同过滤每个历史商品取的相似商品数
	DefaultMaxSimilarPerItem = 10

	// DefaultCacheTTL 推荐结果缓存的过期秒数
	DefaultCacheTTL = 3600

	// DefaultUserWeight / DefaultItemWeight 混合策略的固定线性权重
	DefaultUserWeight = 0.6
	DefaultItemWeight = 0.4

	// DefaultRefreshQueueSize 异步相似度刷新队列容量（满则丢弃并记日志）
	DefaultRefreshQueueSize = 256

	// DefaultRefreshWorkers 异步刷新的固定 worker 数
	DefaultRefreshWorkers = 4
)
