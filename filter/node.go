package filter

import (
	"context"

	"github.com/rushteam/nearbite/core"
	"github.com/rushteam/nearbite/logging"
	"github.com/rushteam/nearbite/metrics"
	"github.com/rushteam/nearbite/pipeline"
)

// LabelFiltered 是被过滤的候选上记录过滤原因的 Label key。
const LabelFiltered = "filtered"

// FilterNode 是过滤 Node，可以组合多个过滤器进行过滤。
// 如果任何一个过滤器返回 true，该物品就会被过滤掉。
//
// 候选按输入顺序依次检查；保留数量达到上限后立即停止，
// 之后的候选既不计算也不返回。
type FilterNode struct {
	Filters []Filter

	// Limit 是保留数量上限，<= 0 表示不限
	Limit int

	// LimitFromContext 为 true 时使用 RecommendContext.TopK 作为上限（覆盖 Limit）
	LimitFromContext bool
}

func (n *FilterNode) Name() string {
	return "filter.node"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) limit(rctx *core.RecommendContext) int {
	if n.LimitFromContext && rctx != nil {
		return rctx.TopK
	}
	return n.Limit
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	limit := n.limit(rctx)
	if len(items) == 0 {
		return items, nil
	}

	log := logging.Component("filter")
	out := make([]*core.Item, 0, len(items))
	for _, item := range items {
		if limit > 0 && len(out) >= limit {
			break
		}
		if item == nil {
			continue
		}

		shouldFilter := false
		filterReason := ""

		// 依次检查每个过滤器
		for _, f := range n.Filters {
			ok, err := f.ShouldFilter(ctx, rctx, item)
			if err != nil {
				// 过滤器错误时记录但不中断流程
				log.Warn().Err(err).
					Str("filter", f.Name()).
					Int("row", item.Row).
					Msg("filter failed, item kept")
				continue
			}
			if ok {
				shouldFilter = true
				filterReason = f.Name()
				break
			}
		}

		if shouldFilter {
			metrics.CandidatesFiltered.WithLabelValues(filterReason).Inc()
			// 记录过滤原因（用于调试/观测）
			item.PutLabel(LabelFiltered, core.Label{
				Value:  "true",
				Source: filterReason,
			})
			continue
		}

		out = append(out, item)
	}

	return out, nil
}
