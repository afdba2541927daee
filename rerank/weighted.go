package rerank

import (
	"context"
	"sort"

	"github.com/rushteam/nearbite/core"
	"github.com/rushteam/nearbite/pipeline"
)

// WeightedScoreNode 按餐厅的加权分数降序重排。
// 使用稳定排序：分数相同的候选保持输入顺序（即索引顺序）。
type WeightedScoreNode struct{}

func (n *WeightedScoreNode) Name() string {
	return "rerank.weighted_score"
}

func (n *WeightedScoreNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *WeightedScoreNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil || it.Restaurant == nil {
			continue
		}
		it.Score = it.Restaurant.WeightedScore
		out = append(out, it)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out, nil
}
