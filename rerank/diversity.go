package rerank

import (
	"context"
	"strings"

	"github.com/rushteam/nearbite/core"
	"github.com/rushteam/nearbite/pipeline"
)

// 多样性分组字段
const (
	DiversityByCuisine = "cuisine"
	DiversityByArea    = "area"
)

// Diversity 是按分组限流的多样性 ReRank：同一分组最多保留 MaxPerKey 个（保留先出现的）。
// 分组来源优先级：
// - label[LabelKey].Value
// - 餐厅的 cuisine / area 字段（LabelKey 为 "cuisine" / "area" 时）
type Diversity struct {
	LabelKey  string // 默认 "cuisine"
	MaxPerKey int    // 默认 1
}

func (n *Diversity) Name() string {
	return "rerank.diversity"
}

func (n *Diversity) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *Diversity) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	key := n.LabelKey
	if key == "" {
		key = DiversityByCuisine
	}
	maxPer := n.MaxPerKey
	if maxPer <= 0 {
		maxPer = 1
	}

	seen := make(map[string]int, 32)
	out := make([]*core.Item, 0, len(items))

	for _, it := range items {
		if it == nil {
			continue
		}

		group := groupOf(it, key)
		if group == "" {
			out = append(out, it)
			continue
		}
		if seen[group] >= maxPer {
			continue
		}
		seen[group]++
		out = append(out, it)
	}

	return out, nil
}

func groupOf(it *core.Item, key string) string {
	if it.Labels != nil {
		if lbl, ok := it.Labels[key]; ok && lbl.Value != "" {
			return strings.ToLower(lbl.Value)
		}
	}
	if it.Restaurant == nil {
		return ""
	}
	switch key {
	case DiversityByCuisine:
		return strings.ToLower(it.Restaurant.Cuisine)
	case DiversityByArea:
		return strings.ToLower(it.Restaurant.Area)
	}
	return ""
}
