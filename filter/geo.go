package filter

import (
	"context"
	"math"

	"github.com/rushteam/nearbite/core"
)

// EarthRadiusKM 是平均地球半径（公里）
const EarthRadiusKM = 6371.0

// HaversineKM 计算两点间的大圆距离（公里）。
func HaversineKM(a, b core.Coordinate) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	// 浮点误差可能让 h 略大于 1
	h = math.Min(1, h)
	return 2 * EarthRadiusKM * math.Asin(math.Sqrt(h))
}

// GeoDistanceFilter 计算用户与餐厅的大圆距离，写入 Item.Features["distance_km"]，
// 并过滤掉超出 RecommendContext.MaxDistanceKM 的候选。
//
// MaxDistanceKM > 0 时只能收紧请求中的上限（取两者较小值）；两者都 <= 0 时只写距离，不过滤。
type GeoDistanceFilter struct {
	MaxDistanceKM float64
}

func NewGeoDistanceFilter(maxKM float64) *GeoDistanceFilter {
	return &GeoDistanceFilter{MaxDistanceKM: maxKM}
}

func (f *GeoDistanceFilter) Name() string {
	return "filter.geo_distance"
}

func (f *GeoDistanceFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil || item.Restaurant == nil {
		return true, nil
	}
	d := HaversineKM(rctx.Location, item.Restaurant.Coordinate())
	if item.Features == nil {
		item.Features = make(map[string]float64, 2)
	}
	item.Features[core.FeatureKeyDistanceKM] = d

	limit := rctx.MaxDistanceKM
	if f.MaxDistanceKM > 0 && (limit <= 0 || f.MaxDistanceKM < limit) {
		limit = f.MaxDistanceKM
	}
	if limit <= 0 {
		return false, nil
	}
	return d > limit, nil
}
