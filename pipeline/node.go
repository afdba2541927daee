package pipeline

import (
	"context"

	"github.com/rushteam/nearbite/core"
)

// Kind 用于标记 Node 类型，方便观测/编排（例如按阶段打点）。
type Kind string

const (
	KindRecall Kind = "recall" // 召回阶段：从候选索引取近邻
	KindFilter Kind = "filter" // 过滤阶段：按真实距离等约束剔除候选
	KindReRank Kind = "rerank" // 重排阶段：按加权分数排序
)

// Node 是 Pipeline 的最小可扩展单元。
// 统一采用"输入 items -> 输出 items"的形态：Recall 生成、Filter 截断、ReRank 重排。
// Node 不得修改 RecommendContext 与模型产物。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RecommendContext,
		items []*core.Item,
	) ([]*core.Item, error)
}
