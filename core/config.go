package core

// 训练与推荐的默认参数。
const (
	// DefaultRating 是缺失评分时的填充值
	DefaultRating = 3.8

	// DefaultReviewCount 是缺失评论数时的填充值
	DefaultReviewCount = 100

	// DefaultKMax 是候选索引的默认近邻预算（会被截断到语料规模）
	DefaultKMax = 20

	// DefaultTopK 是默认返回数量
	DefaultTopK = 10

	// DefaultMaxDistanceKM 是默认的大圆距离上限
	DefaultMaxDistanceKM = 25.0
)

// QueryPlaceholders 是构造查询向量时非空间维度使用的固定占位值。
//
// 这些值对所有查询相同，不改变候选之间的相对位置关系，但会影响缩放特征空间中
// 哪一片语料被视为"近"，因此会影响候选顺序。这是有意保留的近似。
type QueryPlaceholders struct {
	Rating        float64 `json:"rating" yaml:"rating" koanf:"rating"`
	ReviewCount   float64 `json:"review_count" yaml:"review_count" koanf:"review_count"`
	Popularity    float64 `json:"popularity" yaml:"popularity" koanf:"popularity"`
	WeightedScore float64 `json:"weighted_score" yaml:"weighted_score" koanf:"weighted_score"`
}

// DefaultQueryPlaceholders 返回默认占位值 [4.0, 100, 1.0, 0.8]。
func DefaultQueryPlaceholders() QueryPlaceholders {
	return QueryPlaceholders{
		Rating:        4.0,
		ReviewCount:   100,
		Popularity:    1.0,
		WeightedScore: 0.8,
	}
}
