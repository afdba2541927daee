package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rushteam/nearbite/core"
)

// Pipeline 把推荐逻辑拆成可组合的 Node 链，按顺序执行。
type Pipeline struct {
	Nodes []Node

	// Logger 可选；为 nil 时不输出节点级日志
	Logger *zerolog.Logger
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", node.Name(), err)
		}
		if p.Logger != nil {
			p.Logger.Debug().
				Str("node", node.Name()).
				Str("kind", string(node.Kind())).
				Int("in", len(cur)).
				Int("out", len(next)).
				Msg("pipeline node done")
		}
		cur = next
	}
	return cur, nil
}
