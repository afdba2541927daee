package core

// Item 是推荐链路中的候选：对应候选索引中的一行。
//
// Row 是索引内部的行号，与模型产物中的餐厅表按位置对齐；
// Features 承载链路中计算出的数值（feature_distance、distance_km 等）；
// Score 用于最终排序（默认为餐厅的 WeightedScore）。
type Item struct {
	Row        int
	Restaurant *Restaurant
	Score      float64
	Features   map[string]float64
	Labels     map[string]Label
}

// 链路中写入 Item.Features 的 key。
const (
	FeatureKeyFeatureDistance = "feature_distance" // 缩放特征空间中的欧氏距离
	FeatureKeyDistanceKM      = "distance_km"      // 与用户的大圆距离（公里）
)

func NewItem(row int, r *Restaurant) *Item {
	it := &Item{
		Row:        row,
		Restaurant: r,
		Features:   make(map[string]float64, 2),
		Labels:     make(map[string]Label),
	}
	if r != nil {
		it.Score = r.WeightedScore
	}
	return it
}

// PutLabel 写入 Label；若已存在同名 key，则按 MergeLabel 累积。
func (it *Item) PutLabel(key string, lbl Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// Feature 读取链路特征，不存在时返回 (0, false)。
func (it *Item) Feature(key string) (float64, bool) {
	if it.Features == nil {
		return 0, false
	}
	v, ok := it.Features[key]
	return v, ok
}
