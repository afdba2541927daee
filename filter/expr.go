package filter

import (
	"context"

	"github.com/rushteam/nearbite/core"
	"github.com/rushteam/nearbite/pkg/dsl"
)

// ExprFilter 使用 CEL 表达式过滤：表达式为 true 的候选保留，其余过滤。
// Expr 为空时使用请求中的 RecommendContext.Where；两者都为空时不过滤。
//
// 需要放在 GeoDistanceFilter 之后才能引用 item.distance_km。
type ExprFilter struct {
	Expr string
}

func NewExprFilter(expr string) *ExprFilter {
	return &ExprFilter{Expr: expr}
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	expr := f.Expr
	if expr == "" && rctx != nil {
		expr = rctx.Where
	}
	if expr == "" {
		return false, nil
	}
	keep, err := dsl.NewEval(item, rctx).Evaluate(expr)
	if err != nil {
		return false, err
	}
	return !keep, nil
}
