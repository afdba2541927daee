package core

// Neighbor 是候选索引返回的一个近邻：行号 + 缩放特征空间中的距离。
type Neighbor struct {
	Row      int     `json:"row"`
	Distance float64 `json:"distance"`
}

// CandidateIndex 是最近邻检索能力的领域接口。
//
// 约定：
//   - Fit 在缩放后的特征矩阵上构建索引，零行必须拒绝
//   - Query 返回 min(k, Len()) 个近邻，按距离升序；k <= 0 时使用 KMax()
//   - 查询不修改索引状态，可被多个请求并发共享
//
// 实现：
//   - index.Flat：暴力扫描（语料规模小，足够）
//   - 其他实现（k-d tree、向量数据库）也可以实现此接口
type CandidateIndex interface {
	Fit(matrix [][]float64) error
	Query(vector []float64, k int) ([]Neighbor, error)
	KMax() int
	Len() int
	Metric() string
}

// VectorTransformer 把原始特征向量映射到缩放特征空间（由拟合好的 Scaler 实现）。
type VectorTransformer interface {
	Transform(vector []float64) ([]float64, error)
}
