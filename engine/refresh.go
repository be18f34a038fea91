package engine

import (
	"context"
	"sync"
	"time"

	"github.com/bluele/gcache"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/shoprec/config"
	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/similarity"
)

// refreshTask 描述一次行为事件触发的相似度刷新。
// ProductID 为空表示纯搜索行为，只刷新用户侧。
type refreshTask struct {
	UserID    string
	ProductID string
}

// taskTimeout 限定单个刷新任务的存储访问总时长。
const taskTimeout = 30 * time.Second

// refresher 是异步相似度刷新器：有界队列 + 固定 worker 池。
//
// 每个任务做一次 O(活跃用户数 + 活跃商品数) 的扫描：
// 触发用户与所有活跃用户重算 Jaccard，触发商品与所有活跃商品重算共现，
// 结果覆盖写相似度表。写入幂等、可乱序，队列满时丢任务而不是反压调用方
// （丢掉的只是新鲜度，下一次行为事件会再触发）。
//
// 任务与触发请求的生命周期解耦：请求返回不会取消刷新。
// 错误只记日志，不重试不上抛。
type refresher struct {
	behaviors    core.BehaviorRepository
	similarities core.SimilarityRepository
	floor        int
	log          logrus.FieldLogger

	queue chan refreshTask
	eg    errgroup.Group

	mu     sync.Mutex
	closed bool

	// sets 是短 TTL 的行为集 LRU：一次扫描里触发方的集合被反复比较，
	// 不必每对都回存储拉一遍
	sets gcache.Cache
}

func newRefresher(
	cfg *config.Config,
	behaviors core.BehaviorRepository,
	similarities core.SimilarityRepository,
	log logrus.FieldLogger,
) *refresher {
	r := &refresher{
		behaviors:    behaviors,
		similarities: similarities,
		floor:        cfg.ActivityFloor,
		log:          log,
		queue:        make(chan refreshTask, cfg.RefreshQueueSize),
		sets: gcache.New(2048).
			LRU().
			Expiration(30 * time.Second).
			Build(),
	}
	for i := 0; i < cfg.RefreshWorkers; i++ {
		r.eg.Go(r.worker)
	}
	return r
}

// enqueue 尝试投递任务；队列满或已关闭时返回 false。
func (r *refresher) enqueue(task refreshTask) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	select {
	case r.queue <- task:
		return true
	default:
		return false
	}
}

// Close 关闭队列并等待 worker 处理完在途任务。
func (r *refresher) Close() error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()
	return r.eg.Wait()
}

func (r *refresher) worker() error {
	for task := range r.queue {
		r.process(task)
	}
	return nil
}

func (r *refresher) process(task refreshTask) {
	ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
	defer cancel()

	if task.UserID != "" {
		r.refreshUserPairs(ctx, task.UserID)
	}
	if task.ProductID != "" {
		r.refreshItemPairs(ctx, task.ProductID)
	}
}

func (r *refresher) refreshUserPairs(ctx context.Context, userID string) {
	target, err := r.productSet(ctx, userID)
	if err != nil {
		r.log.WithError(err).WithField("user_id", userID).Warn("refresh: load user behaviors failed")
		return
	}
	users, err := r.behaviors.ListActiveUsers(ctx, r.floor)
	if err != nil {
		r.log.WithError(err).Warn("refresh: list active users failed")
		return
	}

	for _, other := range users {
		if other == userID {
			continue
		}
		otherSet, err := r.productSet(ctx, other)
		if err != nil {
			continue
		}
		score := similarity.Jaccard(target, otherSet)
		if err := r.similarities.UpsertUserSimilarity(ctx, userID, other, score, core.AlgorithmJaccard); err != nil {
			r.log.WithError(err).WithFields(logrus.Fields{"user_a": userID, "user_b": other}).
				Warn("refresh: upsert user similarity failed")
		}
	}
}

func (r *refresher) refreshItemPairs(ctx context.Context, productID string) {
	target, err := r.userSet(ctx, productID)
	if err != nil {
		r.log.WithError(err).WithField("product_id", productID).Warn("refresh: load product behaviors failed")
		return
	}
	products, err := r.behaviors.ListActiveProducts(ctx, r.floor)
	if err != nil {
		r.log.WithError(err).Warn("refresh: list active products failed")
		return
	}

	for _, other := range products {
		if other == productID {
			continue
		}
		otherSet, err := r.userSet(ctx, other)
		if err != nil {
			continue
		}
		score := similarity.CosineCooccurrence(target, otherSet)
		if err := r.similarities.UpsertItemSimilarity(ctx, productID, other, score, core.SimilarityCollaborative); err != nil {
			r.log.WithError(err).WithFields(logrus.Fields{"product_a": productID, "product_b": other}).
				Warn("refresh: upsert item similarity failed")
		}
	}
}

func (r *refresher) productSet(ctx context.Context, userID string) (map[string]struct{}, error) {
	key := "u:" + userID
	if cached, err := r.sets.Get(key); err == nil {
		return cached.(map[string]struct{}), nil
	}
	events, err := r.behaviors.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	set := similarity.ProductSet(events)
	_ = r.sets.Set(key, set)
	return set, nil
}

func (r *refresher) userSet(ctx context.Context, productID string) (map[string]struct{}, error) {
	key := "p:" + productID
	if cached, err := r.sets.Get(key); err == nil {
		return cached.(map[string]struct{}), nil
	}
	events, err := r.behaviors.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	set := similarity.UserSet(events)
	_ = r.sets.Set(key, set)
	return set, nil
}
