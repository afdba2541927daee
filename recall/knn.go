package recall

import (
	"context"
	"fmt"

	"github.com/rushteam/nearbite/core"
	"github.com/rushteam/nearbite/feature"
	"github.com/rushteam/nearbite/pipeline"
)

// KNN 是基于候选索引的近邻召回：用用户坐标与固定占位值构造查询向量，
// 经 Scaler 缩放后在缩放特征空间中取 KMax 个最近邻。
// 返回顺序即索引顺序（特征距离升序），后续过滤按此顺序截断。
// KNN 同时实现了 Source 和 Node 接口，可以直接在 Pipeline 中使用。
type KNN struct {
	Scaler       core.VectorTransformer
	Index        core.CandidateIndex
	Records      []*core.Restaurant
	Placeholders core.QueryPlaceholders

	// K 为 0 时使用索引的 KMax
	K int
}

// NewKNN 从构建资源创建 KNN 召回。
func NewKNN(res *pipeline.Resources) *KNN {
	if res == nil {
		return &KNN{Placeholders: core.DefaultQueryPlaceholders()}
	}
	return &KNN{
		Scaler:       res.Scaler,
		Index:        res.Index,
		Records:      res.Records,
		Placeholders: res.Placeholders,
	}
}

func (r *KNN) Name() string        { return "recall.knn" }
func (r *KNN) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *KNN) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口
func (r *KNN) Recall(
	_ context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Scaler == nil || r.Index == nil {
		return nil, core.ErrModelNotLoaded
	}
	if r.Index.Len() == 0 || len(r.Records) == 0 {
		return []*core.Item{}, nil
	}

	q := feature.QueryVector(rctx.Location, r.Placeholders)
	scaled, err := r.Scaler.Transform(q)
	if err != nil {
		return nil, fmt.Errorf("scale query: %w", err)
	}

	k := r.K
	if k <= 0 {
		k = r.Index.KMax()
	}
	neighbors, err := r.Index.Query(scaled, k)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}

	items := make([]*core.Item, 0, len(neighbors))
	for _, nb := range neighbors {
		if nb.Row < 0 || nb.Row >= len(r.Records) {
			return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInternalError,
				fmt.Sprintf("index row %d outside records (%d)", nb.Row, len(r.Records)))
		}
		it := core.NewItem(nb.Row, r.Records[nb.Row])
		it.Features[core.FeatureKeyFeatureDistance] = nb.Distance
		it.PutLabel(LabelRecallSource, core.Label{Value: "knn", Source: "recall"})
		items = append(items, it)
	}
	return items, nil
}
