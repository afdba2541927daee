package builders

import (
	"fmt"

	"github.com/rushteam/nearbite/config"
	"github.com/rushteam/nearbite/filter"
	"github.com/rushteam/nearbite/pipeline"
	"github.com/rushteam/nearbite/pkg/conv"
	"github.com/rushteam/nearbite/recall"
	"github.com/rushteam/nearbite/rerank"
)

func init() {
	config.Register(config.NodeKNN, BuildKNNNode)
	config.Register(config.NodeFilter, BuildFilterNode)
	config.Register("rerank.weighted_score", BuildWeightedScoreNode)
	config.Register("rerank.diversity", BuildDiversityNode)
	config.Register("rerank.topn", BuildTopNNode)
}

func BuildKNNNode(cfg map[string]any, res *pipeline.Resources) (pipeline.Node, error) {
	if res == nil || res.Index == nil || res.Scaler == nil {
		return nil, fmt.Errorf("recall.knn requires a loaded model")
	}
	knn := recall.NewKNN(res)
	if k := conv.ConfigGetInt64(cfg, "k", 0); k > 0 {
		knn.K = int(k)
	}
	return knn, nil
}

// BuildFilterNode 构建过滤节点。limit 缺省为 "top_k"（使用请求的 TopK）；填数字则为固定上限，填 0 表示不限。
func BuildFilterNode(cfg map[string]any, res *pipeline.Resources) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]any)
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}

	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]any)
		if !ok {
			continue
		}
		filterType := conv.ConfigGet(filterMap, "type", "")
		switch filterType {
		case config.FilterGeoDistance:
			maxKM := conv.ConfigGetFloat64(filterMap, "max_km", 0)
			filters = append(filters, filter.NewGeoDistanceFilter(maxKM))

		case "expr":
			expr := conv.ConfigGet(filterMap, "expr", "")
			filters = append(filters, filter.NewExprFilter(expr))

		case "blacklist":
			names := conv.SliceAnyToString(filterMap["names"])
			filters = append(filters, filter.NewBlacklistFilter(names, nil, ""))

		default:
			return nil, fmt.Errorf("unknown filter type: %s", filterType)
		}
	}

	node := &filter.FilterNode{Filters: filters}
	switch v := cfg["limit"].(type) {
	case nil:
		node.LimitFromContext = true
	case string:
		if v != "top_k" {
			return nil, fmt.Errorf("invalid filter limit: %q", v)
		}
		node.LimitFromContext = true
	default:
		n, ok := conv.ToInt(v)
		if !ok {
			return nil, fmt.Errorf("invalid filter limit: %v", v)
		}
		node.Limit = n
	}
	return node, nil
}

func BuildWeightedScoreNode(_ map[string]any, _ *pipeline.Resources) (pipeline.Node, error) {
	return &rerank.WeightedScoreNode{}, nil
}

func BuildDiversityNode(cfg map[string]any, _ *pipeline.Resources) (pipeline.Node, error) {
	return &rerank.Diversity{
		LabelKey:  conv.ConfigGet(cfg, "label_key", rerank.DiversityByCuisine),
		MaxPerKey: int(conv.ConfigGetInt64(cfg, "max_per_key", 1)),
	}, nil
}

func BuildTopNNode(cfg map[string]any, _ *pipeline.Resources) (pipeline.Node, error) {
	return &rerank.TopNNode{N: int(conv.ConfigGetInt64(cfg, "n", 0))}, nil
}
