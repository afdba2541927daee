package feature

import (
	"fmt"
	"math"

	"github.com/rushteam/nearbite/core"
)

// 特征名，顺序即特征向量的列顺序。
const (
	NameLatitude      = "latitude"
	NameLongitude     = "longitude"
	NameRating        = "rating"
	NameReviewCount   = "review_count"
	NamePopularity    = "popularity"
	NameWeightedScore = "weighted_score"
)

// Order 是固定的特征列顺序；Scaler 参数、索引矩阵都按此顺序对齐。
var Order = []string{
	NameLatitude,
	NameLongitude,
	NameRating,
	NameReviewCount,
	NamePopularity,
	NameWeightedScore,
}

// Dim 是特征向量维度
var Dim = len(Order)

// 加权分数的组成权重
const (
	RatingWeight     = 0.7
	PopularityWeight = 0.3
	MaxRating        = 5.0
)

// Popularity 用 log1p 压缩长尾的评论数。
func Popularity(reviewCount int64) float64 {
	if reviewCount < 0 {
		reviewCount = 0
	}
	return math.Log1p(float64(reviewCount))
}

// QualityScore 将评分归一化到 [0, 1]。
func QualityScore(rating float64) float64 {
	return rating / MaxRating
}

// WeightedScore 组合评分与（相对语料最大值归一化的）人气。
// 公式: 0.7 * rating + 0.3 * (popularity / maxPopularity * 5)
// maxPopularity 为 0 时人气项记为 0。
func WeightedScore(rating, popularity, maxPopularity float64) float64 {
	popTerm := 0.0
	if maxPopularity > 0 {
		popTerm = popularity / maxPopularity * MaxRating
	}
	return RatingWeight*rating + PopularityWeight*popTerm
}

// Engineer 为每条记录计算派生特征。maxPopularity 在所有记录上只计算一次，
// 返回值供调用方记录到模型信息中。
func Engineer(records []*core.Restaurant) (maxPopularity float64) {
	for _, r := range records {
		r.Popularity = Popularity(r.ReviewCount)
		if r.Popularity > maxPopularity {
			maxPopularity = r.Popularity
		}
	}
	for _, r := range records {
		r.QualityScore = QualityScore(r.Rating)
		r.WeightedScore = WeightedScore(r.Rating, r.Popularity, maxPopularity)
	}
	return maxPopularity
}

// Validate 检查记录能否进入语料；失败时返回 RECORD_VALIDATION_SKIP 错误。
func Validate(r *core.Restaurant) error {
	switch {
	case r == nil:
		return skip("nil record")
	case math.IsNaN(r.Latitude) || math.IsNaN(r.Longitude):
		return skip("missing coordinates")
	case r.Latitude < -90 || r.Latitude > 90:
		return skip(fmt.Sprintf("latitude %v out of range", r.Latitude))
	case r.Longitude < -180 || r.Longitude > 180:
		return skip(fmt.Sprintf("longitude %v out of range", r.Longitude))
	case math.IsNaN(r.Rating) || r.Rating < 0 || r.Rating > MaxRating:
		return skip(fmt.Sprintf("rating %v outside [0, 5]", r.Rating))
	case r.ReviewCount < 0:
		return skip(fmt.Sprintf("negative review_count %d", r.ReviewCount))
	}
	return nil
}

func skip(reason string) error {
	return core.NewDomainError(core.ModuleFeature, core.ErrorCodeRecordSkip, reason)
}

// Vector 返回记录的 6 维特征向量（需先经过 Engineer）。
func Vector(r *core.Restaurant) []float64 {
	return []float64{
		r.Latitude,
		r.Longitude,
		r.Rating,
		float64(r.ReviewCount),
		r.Popularity,
		r.WeightedScore,
	}
}

// Matrix 按记录顺序构建特征矩阵，行号与记录下标一一对应。
func Matrix(records []*core.Restaurant) [][]float64 {
	m := make([][]float64, len(records))
	for i, r := range records {
		m[i] = Vector(r)
	}
	return m
}

// QueryVector 用用户坐标与固定占位值构造查询向量。
func QueryVector(loc core.Coordinate, p core.QueryPlaceholders) []float64 {
	return []float64{
		loc.Latitude,
		loc.Longitude,
		p.Rating,
		p.ReviewCount,
		p.Popularity,
		p.WeightedScore,
	}
}
