package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/shoprec/cache"
	"github.com/rushteam/shoprec/config"
	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/filter"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/recall"
	"github.com/rushteam/shoprec/rerank"
	"github.com/rushteam/shoprec/similarity"
)

// Engine 是推荐引擎的门面：上层应用只消费这一个入口。
//
// 读路径：缓存查询 → 未命中则跑策略 Node 链（召回 → 过滤 → 截断）→ 回写缓存。
// 写路径：UpdateRecommendations 同步失效缓存，异步触发相似度刷新。
//
// 错误语义（对齐产品约定）：
//   - 契约错误（limit <= 0、空 ID）立即返回 INVALID_INPUT
//   - 存储/网络错误记日志并降级为空列表，绝不把异常抛给调用方
//
// 生命周期：New 启动异步刷新 worker，Close 停止并等待收尾。
// 引擎自身无全局状态，所有依赖显式注入。
type Engine struct {
	cfg          *config.Config
	behaviors    core.BehaviorRepository
	similarities core.SimilarityRepository
	calc         *similarity.Calculator
	cache        *cache.RecommendationCache
	store        core.KeyValueStore
	rules        []filter.Filter
	log          logrus.FieldLogger
	refresher    *refresher
}

// Option 配置 Engine 的可选依赖。
type Option func(*Engine)

// WithLogger 注入日志器（默认 logrus 标准输出）。
func WithLogger(log logrus.FieldLogger) Option {
	return func(e *Engine) { e.log = log }
}

// New 装配一个引擎并启动异步刷新 worker。
// cfg 可以为 nil（全默认）；配置里的 CEL 规则在这里编译，非法规则直接失败。
func New(
	cfg *config.Config,
	behaviors core.BehaviorRepository,
	similarities core.SimilarityRepository,
	kv core.KeyValueStore,
	opts ...Option,
) (*Engine, error) {
	if behaviors == nil || similarities == nil || kv == nil {
		return nil, core.NewInvalidInput(core.ModuleEngine, "engine: behaviors, similarities and kv store are required")
	}
	if cfg == nil {
		cfg = config.Default()
	} else {
		cfg.Normalize()
	}

	e := &Engine{
		cfg:          cfg,
		behaviors:    behaviors,
		similarities: similarities,
		calc:         similarity.NewCalculator(behaviors),
		cache:        cache.New(kv, "", cfg.CacheTTL),
		store:        kv,
		log:          logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}

	for _, expr := range cfg.Rules {
		rf, err := filter.NewRuleFilter(expr)
		if err != nil {
			return nil, fmt.Errorf("engine: bad rule %q: %w", expr, err)
		}
		e.rules = append(e.rules, rf)
	}

	e.refresher = newRefresher(cfg, behaviors, similarities, e.log)
	return e, nil
}

// Close 停止异步刷新 worker 并等待在途任务完成。
func (e *Engine) Close() error {
	return e.refresher.Close()
}

// GetUserBasedRecommendations 返回基于用户协同过滤的推荐。
func (e *Engine) GetUserBasedRecommendations(ctx context.Context, userID string, limit int) ([]core.RecommendationScore, error) {
	if err := validateRequest(userID, limit); err != nil {
		return nil, err
	}
	return e.recommend(ctx, core.StrategyUserBased, userID, limit)
}

// GetItemBasedRecommendations 返回基于物品协同过滤的推荐。
func (e *Engine) GetItemBasedRecommendations(ctx context.Context, userID string, limit int) ([]core.RecommendationScore, error) {
	if err := validateRequest(userID, limit); err != nil {
		return nil, err
	}
	return e.recommend(ctx, core.StrategyItemBased, userID, limit)
}

// GetHybridRecommendations 并发执行两种策略并线性融合（用户 0.6 / 物品 0.4）。
func (e *Engine) GetHybridRecommendations(ctx context.Context, userID string, limit int) ([]core.RecommendationScore, error) {
	if err := validateRequest(userID, limit); err != nil {
		return nil, err
	}
	return e.recommend(ctx, core.StrategyHybrid, userID, limit)
}

// GetPopularRecommendations 返回非个性化的热门榜单，个性化数据不足时的兜底。
func (e *Engine) GetPopularRecommendations(ctx context.Context, limit int) ([]core.RecommendationScore, error) {
	if limit <= 0 {
		return nil, core.NewInvalidInput(core.ModuleEngine, "engine: limit must be positive")
	}
	requestID := uuid.NewString()
	rctx := &core.RecommendContext{Params: map[string]any{"request_id": requestID}}
	src := &recall.Popular{Store: e.store}
	p := &pipeline.Pipeline{Nodes: []pipeline.Node{src, &filter.Node{Filters: e.rules}, &rerank.TopN{N: limit}}}

	items, err := p.Run(ctx, rctx, nil)
	if err != nil {
		e.log.WithError(err).WithField("request_id", requestID).
			Warn("popular recommendations degraded to empty")
		return []core.RecommendationScore{}, nil
	}
	return scoresFrom(items, core.StrategyPopular), nil
}

// CalculateUserSimilarity 计算两个用户的 Jaccard 相似度。
// 存储故障降级为 0（记日志），契约错误照常返回。
func (e *Engine) CalculateUserSimilarity(ctx context.Context, userA, userB string) (float64, error) {
	if userA == "" || userB == "" {
		return 0, core.NewInvalidInput(core.ModuleEngine, "engine: both user ids are required")
	}
	sim, err := e.calc.UserSimilarity(ctx, userA, userB)
	if err != nil {
		e.log.WithError(err).WithFields(logrus.Fields{"user_a": userA, "user_b": userB}).
			Warn("user similarity degraded to 0")
		return 0, nil
	}
	return sim, nil
}

// CalculateItemSimilarity 计算两个商品的共现相似度。
func (e *Engine) CalculateItemSimilarity(ctx context.Context, productA, productB string) (float64, error) {
	if productA == "" || productB == "" {
		return 0, core.NewInvalidInput(core.ModuleEngine, "engine: both product ids are required")
	}
	sim, err := e.calc.ItemSimilarity(ctx, productA, productB)
	if err != nil {
		e.log.WithError(err).WithFields(logrus.Fields{"product_a": productA, "product_b": productB}).
			Warn("item similarity degraded to 0")
		return 0, nil
	}
	return sim, nil
}

// UpdateRecommendations 在新行为事件落库后调用：
// 同步失效该用户的全部缓存条目，异步触发相似度刷新（fire-and-forget）。
// 刷新队列满时任务被丢弃并记日志，调用方不会被反压。
// productID 可为空（纯搜索行为只刷新用户侧）。
func (e *Engine) UpdateRecommendations(ctx context.Context, userID, productID string, behaviorType core.BehaviorType) error {
	if userID == "" {
		return core.NewInvalidInput(core.ModuleEngine, "engine: user id is required")
	}
	if !behaviorType.Valid() {
		return core.NewInvalidInput(core.ModuleEngine, "engine: unknown behavior type "+string(behaviorType))
	}

	if err := e.cache.Invalidate(ctx, userID); err != nil {
		e.log.WithError(err).WithField("user_id", userID).Warn("cache invalidation failed")
	}

	if !e.refresher.enqueue(refreshTask{UserID: userID, ProductID: productID}) {
		e.log.WithFields(logrus.Fields{"user_id": userID, "product_id": productID}).
			Warn("refresh queue full, similarity refresh dropped")
	}
	return nil
}

// recommend 是三种个性化策略共用的读路径。
func (e *Engine) recommend(ctx context.Context, strategy core.Strategy, userID string, limit int) ([]core.RecommendationScore, error) {
	if scores, ok := e.cache.Get(ctx, strategy, userID, limit); ok {
		return scores, nil
	}

	requestID := uuid.NewString()
	rctx := &core.RecommendContext{
		UserID: userID,
		Params: map[string]any{"request_id": requestID},
	}

	var (
		items []*core.Item
		err   error
	)
	switch strategy {
	case core.StrategyHybrid:
		items, err = e.runHybrid(ctx, rctx, limit)
	case core.StrategyItemBased:
		items, err = e.runPipeline(ctx, rctx, e.itemSource(), limit)
	default:
		items, err = e.runPipeline(ctx, rctx, e.userSource(), limit)
	}
	if err != nil {
		e.log.WithError(err).WithFields(logrus.Fields{
			"request_id": requestID,
			"user_id":    userID,
			"strategy":   strategy,
		}).Warn("recommendation degraded to empty")
		return []core.RecommendationScore{}, nil
	}

	scores := scoresFrom(items, strategy)
	if err := e.cache.Set(ctx, strategy, userID, limit, scores); err != nil {
		e.log.WithError(err).WithFields(logrus.Fields{
			"request_id": requestID,
			"user_id":    userID,
		}).Warn("cache write failed")
	}
	return scores, nil
}

func (e *Engine) userSource() *recall.UserCF {
	return &recall.UserCF{
		Behaviors:           e.behaviors,
		ActivityFloor:       e.cfg.ActivityFloor,
		SimilarityThreshold: e.cfg.SimilarityThreshold,
		MaxNeighbors:        e.cfg.MaxNeighbors,
	}
}

func (e *Engine) itemSource() *recall.ItemCF {
	return &recall.ItemCF{
		Behaviors:           e.behaviors,
		Similarities:        e.similarities,
		SimilarityThreshold: e.cfg.SimilarityThreshold,
		MaxSimilarPerItem:   e.cfg.MaxSimilarPerItem,
	}
}

// filterNode 每个请求新建：InteractedFilter 带请求级行为集缓存，规则过滤器可复用。
func (e *Engine) filterNode() *filter.Node {
	filters := make([]filter.Filter, 0, len(e.rules)+1)
	filters = append(filters, filter.NewInteractedFilter(e.behaviors, true))
	filters = append(filters, e.rules...)
	return &filter.Node{Filters: filters}
}

func (e *Engine) runPipeline(ctx context.Context, rctx *core.RecommendContext, src pipeline.Node, limit int) ([]*core.Item, error) {
	p := &pipeline.Pipeline{Nodes: []pipeline.Node{src, e.filterNode(), &rerank.TopN{N: limit}}}
	return p.Run(ctx, rctx, nil)
}

// runHybrid 并发跑两路召回（errgroup），融合后再过滤截断。
func (e *Engine) runHybrid(ctx context.Context, rctx *core.RecommendContext, limit int) ([]*core.Item, error) {
	var userItems, itemItems []*core.Item

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := e.userSource().Recall(gctx, rctx)
		if err != nil {
			return err
		}
		userItems = items
		return nil
	})
	g.Go(func() error {
		items, err := e.itemSource().Recall(gctx, rctx)
		if err != nil {
			return err
		}
		itemItems = items
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := rerank.Merge(userItems, itemItems, e.cfg.UserWeight, e.cfg.ItemWeight, 0)
	p := &pipeline.Pipeline{Nodes: []pipeline.Node{e.filterNode(), &rerank.TopN{N: limit}}}
	return p.Run(ctx, rctx, merged)
}

func validateRequest(userID string, limit int) error {
	if userID == "" {
		return core.NewInvalidInput(core.ModuleEngine, "engine: user id is required")
	}
	if limit <= 0 {
		return core.NewInvalidInput(core.ModuleEngine, "engine: limit must be positive")
	}
	return nil
}

// scoresFrom 把链路内部的 Item 转成对外的 RecommendationScore，
// reason 按策略生成并引用最终分数的百分比表示。
func scoresFrom(items []*core.Item, strategy core.Strategy) []core.RecommendationScore {
	scores := make([]core.RecommendationScore, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		scores = append(scores, core.RecommendationScore{
			ProductID: it.ID,
			Score:     it.Score,
			Strategy:  strategy,
			Reason:    reasonFor(it, strategy),
		})
	}
	return scores
}

func reasonFor(it *core.Item, strategy core.Strategy) string {
	switch strategy {
	case core.StrategyUserBased:
		return fmt.Sprintf("shoppers with similar taste liked this (match %.1f%%)", it.Score*100)
	case core.StrategyItemBased:
		return fmt.Sprintf("similar to products you interacted with (match %.1f%%)", it.Score*100)
	case core.StrategyHybrid:
		return fmt.Sprintf("blended pick from your shopping patterns (match %.1f%%)", it.Score*100)
	default:
		return "popular with shoppers right now"
	}
}
