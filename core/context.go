package core

// RecommendContext 承载一次推荐请求的参数，贯穿整个 Pipeline 透传。
// 请求期间只读；各 Node 不应修改其中的字段。
type RecommendContext struct {
	// Location 是已经解析好的用户坐标；地名解析失败时不会构造 RecommendContext。
	Location Coordinate

	// TopK 是最多返回的餐厅数量
	TopK int

	// MaxDistanceKM 是大圆距离上限（公里）
	MaxDistanceKM float64

	// Where 是可选的 CEL 过滤表达式，例如 `item.rating >= 4.5`
	Where string

	// Labels 是请求级标签（例如地名来源），用于解释
	Labels map[string]Label

	// Params 是请求级扩展参数
	Params map[string]any
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (Label, bool) {
	if rctx.Labels == nil {
		return Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
