package filter

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/rushteam/nearbite/core"
	"github.com/rushteam/nearbite/store"
)

func item(row int, name string, lat, lon, rating float64) *core.Item {
	return core.NewItem(row, &core.Restaurant{
		Name:          name,
		Latitude:      lat,
		Longitude:     lon,
		Rating:        rating,
		ReviewCount:   100,
		Cuisine:       "Javanese",
		WeightedScore: rating,
	})
}

func TestHaversineKM(t *testing.T) {
	tests := []struct {
		name string
		a, b core.Coordinate
		want float64
	}{
		{"同一点", core.Coordinate{Latitude: -7.98, Longitude: 112.63}, core.Coordinate{Latitude: -7.98, Longitude: 112.63}, 0},
		{"纬度差 0.01 度", core.Coordinate{Latitude: -7.98, Longitude: 112.63}, core.Coordinate{Latitude: -7.99, Longitude: 112.63}, 1.112},
		{"对跖点", core.Coordinate{Latitude: 0, Longitude: 0}, core.Coordinate{Latitude: 0, Longitude: 180}, math.Pi * EarthRadiusKM},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineKM(tt.a, tt.b)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("HaversineKM() = %v, 期望 %v", got, tt.want)
			}
			if back := HaversineKM(tt.b, tt.a); math.Abs(back-got) > 1e-9 {
				t.Errorf("距离不对称: %v != %v", back, got)
			}
		})
	}
}

func TestGeoDistanceFilter(t *testing.T) {
	ctx := context.Background()
	rctx := &core.RecommendContext{
		Location:      core.Coordinate{Latitude: -7.98, Longitude: 112.63},
		MaxDistanceKM: 1,
	}
	near := item(0, "near", -7.985, 112.63, 4)
	far := item(1, "far", -8.0, 112.63, 4)

	f := NewGeoDistanceFilter(0)
	if drop, _ := f.ShouldFilter(ctx, rctx, near); drop {
		t.Errorf("0.56 km 的候选不应被过滤")
	}
	if drop, _ := f.ShouldFilter(ctx, rctx, far); !drop {
		t.Errorf("2.2 km 的候选应被过滤")
	}
	if d, ok := near.Feature(core.FeatureKeyDistanceKM); !ok || math.Abs(d-0.556) > 0.001 {
		t.Errorf("distance_km = %v, %v", d, ok)
	}

	// 节点自身的上限只能收紧请求上限
	wide := NewGeoDistanceFilter(50)
	if drop, _ := wide.ShouldFilter(ctx, rctx, far); !drop {
		t.Errorf("max_km=50 不应放宽请求的 1 km 上限")
	}
	tight := NewGeoDistanceFilter(0.5)
	if drop, _ := tight.ShouldFilter(ctx, rctx, near); !drop {
		t.Errorf("max_km=0.5 时 0.56 km 的候选应被过滤")
	}
	if drop, _ := wide.ShouldFilter(ctx, &core.RecommendContext{Location: rctx.Location}, far); drop {
		t.Errorf("请求无上限时使用 max_km=50")
	}

	// 两者都不设置时只写距离
	unbounded := &core.RecommendContext{Location: rctx.Location}
	if drop, _ := f.ShouldFilter(ctx, unbounded, far); drop {
		t.Errorf("无上限时不应过滤")
	}
}

func TestExprFilter(t *testing.T) {
	ctx := context.Background()
	good := item(0, "good", -7.98, 112.63, 4.6)
	bad := item(1, "bad", -7.98, 112.63, 3.9)

	f := NewExprFilter("item.rating >= 4.5")
	if drop, err := f.ShouldFilter(ctx, &core.RecommendContext{}, good); err != nil || drop {
		t.Errorf("good: drop=%v err=%v", drop, err)
	}
	if drop, err := f.ShouldFilter(ctx, &core.RecommendContext{}, bad); err != nil || !drop {
		t.Errorf("bad: drop=%v err=%v", drop, err)
	}

	// Expr 为空时回退到请求中的 where
	fromReq := NewExprFilter("")
	rctx := &core.RecommendContext{Where: `item.name == "bad"`}
	if drop, _ := fromReq.ShouldFilter(ctx, rctx, good); !drop {
		t.Errorf("where 不匹配时应过滤")
	}
	if drop, _ := fromReq.ShouldFilter(ctx, &core.RecommendContext{}, good); drop {
		t.Errorf("没有表达式时不应过滤")
	}

	if _, err := NewExprFilter("item.rating >").ShouldFilter(ctx, &core.RecommendContext{}, good); err == nil {
		t.Errorf("非法表达式应返回错误")
	}
}

func TestBlacklistFilter(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	if err := s.Set(ctx, "blacklist", []byte(`["Warung Closed"]`)); err != nil {
		t.Fatal(err)
	}

	f := NewBlacklistFilter([]string{"bakso president"}, s, "blacklist")
	tests := []struct {
		name string
		want bool
	}{
		{"Bakso President", true},
		{"warung closed", true},
		{"Toko Oen", false},
	}
	for _, tt := range tests {
		got, err := f.ShouldFilter(ctx, nil, item(0, tt.name, 0, 0, 4))
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("%s: ShouldFilter() = %v, 期望 %v", tt.name, got, tt.want)
		}
	}

	// key 不存在时视为空黑名单
	missing := NewBlacklistFilter(nil, s, "missing")
	if got, err := missing.ShouldFilter(ctx, nil, item(0, "Toko Oen", 0, 0, 4)); err != nil || got {
		t.Errorf("missing key: got=%v err=%v", got, err)
	}
}

type failingFilter struct{}

func (failingFilter) Name() string { return "filter.failing" }

func (failingFilter) ShouldFilter(context.Context, *core.RecommendContext, *core.Item) (bool, error) {
	return false, errors.New("boom")
}

func TestFilterNode_StopsAtLimit(t *testing.T) {
	rctx := &core.RecommendContext{
		Location:      core.Coordinate{Latitude: -7.98, Longitude: 112.63},
		TopK:          2,
		MaxDistanceKM: 1,
	}
	items := []*core.Item{
		item(0, "a", -7.98, 112.63, 4),
		item(1, "too far", -8.1, 112.63, 4),
		item(2, "b", -7.981, 112.63, 4),
		item(3, "c", -7.982, 112.63, 4),
	}

	node := &FilterNode{
		Filters:          []Filter{NewGeoDistanceFilter(0)},
		LimitFromContext: true,
	}
	out, err := node.Process(context.Background(), rctx, items)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || out[0].Restaurant.Name != "a" || out[1].Restaurant.Name != "b" {
		t.Fatalf("期望 [a b]，实际 %v", names(out))
	}
	if lbl, ok := items[1].Labels[LabelFiltered]; !ok || lbl.Source != "filter.geo_distance" {
		t.Errorf("被过滤的候选应记录原因，实际 %+v", lbl)
	}
	// 达到上限后不再计算
	if _, ok := items[3].Feature(core.FeatureKeyDistanceKM); ok {
		t.Errorf("上限之后的候选不应被处理")
	}
}

func TestFilterNode_ErrorKeepsItem(t *testing.T) {
	node := &FilterNode{Filters: []Filter{failingFilter{}}}
	items := []*core.Item{item(0, "a", 0, 0, 4), nil, item(1, "b", 0, 0, 4)}
	out, err := node.Process(context.Background(), &core.RecommendContext{}, items)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Errorf("过滤器出错时应保留候选，实际 %v", names(out))
	}
}

func names(items []*core.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Restaurant.Name)
	}
	return out
}
