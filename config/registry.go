package config

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rushteam/nearbite/pipeline"
)

// 需要配置驱动的入口应 import _ "github.com/rushteam/nearbite/config/builders"，
// 由其 init 注册 recall.knn / filter / rerank.* 等内置节点。

// 推荐链路必需的节点与过滤器类型。
const (
	NodeKNN           = "recall.knn"
	NodeFilter        = "filter"
	FilterGeoDistance = "geo_distance"
)

// NodeBuilder 与 pipeline.NodeBuilder 一致。
type NodeBuilder = pipeline.NodeBuilder

var (
	mu       sync.RWMutex
	builders = make(map[string]NodeBuilder)
)

// Register 注册一种节点的构建函数；空类型或 nil 构建函数被忽略，重复注册以后者为准。
func Register(typeName string, builder NodeBuilder) {
	if typeName == "" || builder == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	builders[typeName] = builder
}

func registered(typeName string) bool {
	mu.RLock()
	defer mu.RUnlock()
	_, ok := builders[typeName]
	return ok
}

// SupportedTypes 返回已注册的节点类型（排序）。
func SupportedTypes() []string {
	mu.RLock()
	defer mu.RUnlock()
	types := make([]string, 0, len(builders))
	for t := range builders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// DefaultFactory 返回包含全部已注册类型的 NodeFactory 快照。
func DefaultFactory() *pipeline.NodeFactory {
	mu.RLock()
	defer mu.RUnlock()
	f := pipeline.NewNodeFactory()
	for typeName, builder := range builders {
		f.Register(typeName, builder)
	}
	return f
}

// ValidatePipelineConfig 校验配置的节点链：
//   - 每个节点类型都已注册
//   - 第一个节点是 recall.knn（其余节点都基于它的候选）
//   - 至少一个 filter 节点带 geo_distance 过滤器，保证结果不超出请求的距离上限
func ValidatePipelineConfig(cfg *pipeline.Config) error {
	if cfg == nil {
		return nil
	}
	nodes := cfg.Pipeline.Nodes
	for _, nc := range nodes {
		if !registered(nc.Type) {
			return fmt.Errorf("unsupported node type %q (supported: %v)", nc.Type, SupportedTypes())
		}
	}
	if len(nodes) == 0 || nodes[0].Type != NodeKNN {
		return fmt.Errorf("pipeline %q must start with %s", cfg.Pipeline.Name, NodeKNN)
	}
	for _, nc := range nodes {
		if nc.Type == NodeFilter && hasFilter(nc.Config, FilterGeoDistance) {
			return nil
		}
	}
	return fmt.Errorf("pipeline %q needs a %s node with a %s filter", cfg.Pipeline.Name, NodeFilter, FilterGeoDistance)
}

func hasFilter(cfg map[string]any, filterType string) bool {
	list, _ := cfg["filters"].([]any)
	for _, fc := range list {
		m, ok := fc.(map[string]any)
		if ok && m["type"] == filterType {
			return true
		}
	}
	return false
}
