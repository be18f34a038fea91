// Package shoprec 是一个行为驱动的协同过滤推荐引擎（shop recommender）。
//
// 设计要点：
// - Pipeline-first: 每种策略是一条 Node 链（Recall → Filter → ReRank）
// - Labels-first: labels 全链路透传，支撑 explain 与规则驱动过滤
// - 依赖显式注入: 行为日志 / 相似度表 / 缓存都走领域接口，无全局单例
//
// 读路径缓存优先；新行为事件通过 UpdateRecommendations 同步失效缓存、
// 异步触发相似度重算（有界 worker 队列，错误只记日志）。
package shoprec

import (
	"github.com/rushteam/shoprec/config"
	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/engine"
)

// 轻量 facade：便于用户直接 import "shoprec" 使用核心入口。
type Engine = engine.Engine
type Config = config.Config
type RecommendationScore = core.RecommendationScore
type BehaviorEvent = core.BehaviorEvent

var New = engine.New

const (
	StrategyUserBased = core.StrategyUserBased
	StrategyItemBased = core.StrategyItemBased
	StrategyHybrid    = core.StrategyHybrid
	StrategyPopular   = core.StrategyPopular
)
