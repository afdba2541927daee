// Package nearbite 是一个基于地理位置的餐厅推荐工具（Malang 地区）。
//
// 设计要点：
// - 离线训练：CSV 清洗 → 特征工程 → 标准化 + 近邻索引 → 版本化模型产物
// - 在线查询：Pipeline 串联 Node（Recall → Filter → ReRank），可由 YAML 配置
// - Labels-first: 召回来源、过滤原因随候选透传，便于 explain / 调试
package nearbite

import "github.com/rushteam/nearbite/pipeline"

// 轻量 facade：便于直接 import "nearbite" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall = pipeline.KindRecall
	KindFilter = pipeline.KindFilter
	KindReRank = pipeline.KindReRank
)
