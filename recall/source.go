package recall

import (
	"context"

	"github.com/rushteam/nearbite/core"
)

// Source 表示一个可复用的召回源。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

// LabelRecallSource 是召回阶段写入 Item 的来源标签 key。
const LabelRecallSource = "recall_source"
