// Package engine 是在线推荐入口：对注入的模型产物执行
// recall.knn → filter(geo_distance, limit=topK) → rerank.weighted_score 节点链。
//
// Engine 在构造后只读，可被多个 goroutine 并发使用。
package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rushteam/nearbite/artifact"
	"github.com/rushteam/nearbite/config"
	_ "github.com/rushteam/nearbite/config/builders"
	"github.com/rushteam/nearbite/core"
	"github.com/rushteam/nearbite/filter"
	"github.com/rushteam/nearbite/geocode"
	"github.com/rushteam/nearbite/logging"
	"github.com/rushteam/nearbite/metrics"
	"github.com/rushteam/nearbite/pipeline"
	"github.com/rushteam/nearbite/pkg/dsl"
	"github.com/rushteam/nearbite/recall"
	"github.com/rushteam/nearbite/rerank"
)

// Recommendation 是一条推荐结果。
type Recommendation struct {
	Name          string  `json:"name"`
	Rating        float64 `json:"rating"`
	ReviewCount   int64   `json:"review_count"`
	DistanceKM    float64 `json:"distance_km"`
	Address       string  `json:"address"`
	Area          string  `json:"area"`
	Cuisine       string  `json:"cuisine"`
	WeightedScore float64 `json:"weighted_score"`
	Popularity    float64 `json:"popularity"`
}

// Request 是一次推荐请求。
type Request struct {
	Location      core.Coordinate
	TopK          int
	MaxDistanceKM float64

	// Where 是可选的 CEL 过滤表达式，例如 `item.rating >= 4.5`
	Where string
}

// PlaceResult 是按地名推荐的结果。
type PlaceResult struct {
	Place           string
	Location        geocode.Location
	Recommendations []Recommendation
}

// Engine 持有模型产物与节点链。
type Engine struct {
	model    *artifact.Model
	pipeline *pipeline.Pipeline

	pipelineConfig *pipeline.Config
	placeholders   core.QueryPlaceholders
	geocoder       geocode.Geocoder
	maxDistanceKM  float64
}

// Option 配置 Engine
type Option func(*Engine)

// WithPipelineConfig 使用配置驱动的节点链替换内置链路。
func WithPipelineConfig(cfg *pipeline.Config) Option {
	return func(e *Engine) { e.pipelineConfig = cfg }
}

// WithPlaceholders 替换查询向量中非空间维度的占位值。
func WithPlaceholders(p core.QueryPlaceholders) Option {
	return func(e *Engine) { e.placeholders = p }
}

// WithGeocoder 设置按地名推荐使用的 Geocoder。
func WithGeocoder(g geocode.Geocoder) Option {
	return func(e *Engine) { e.geocoder = g }
}

// WithMaxDistanceKM 设置按地名推荐时的距离上限（默认 25km）。
func WithMaxDistanceKM(km float64) Option {
	return func(e *Engine) { e.maxDistanceKM = km }
}

// New 创建 Engine。model 为 nil 时构造成功，但 Recommend 返回 MODEL_NOT_LOADED。
func New(model *artifact.Model, opts ...Option) (*Engine, error) {
	e := &Engine{
		placeholders:  core.DefaultQueryPlaceholders(),
		maxDistanceKM: core.DefaultMaxDistanceKM,
	}
	for _, opt := range opts {
		opt(e)
	}

	if model == nil || len(model.Records) == 0 {
		e.model = model
		return e, nil
	}
	if err := model.Validate(); err != nil {
		return nil, err
	}
	e.model = model

	res := &pipeline.Resources{
		Scaler:       model.Scaler,
		Index:        model.Index,
		Records:      model.Records,
		Placeholders: e.placeholders,
	}
	p, err := e.buildPipeline(res)
	if err != nil {
		return nil, err
	}
	log := logging.Component("engine")
	p.Logger = &log
	e.pipeline = p
	return e, nil
}

func (e *Engine) buildPipeline(res *pipeline.Resources) (*pipeline.Pipeline, error) {
	if e.pipelineConfig == nil {
		return DefaultPipeline(res), nil
	}
	if err := config.ValidatePipelineConfig(e.pipelineConfig); err != nil {
		return nil, err
	}
	p, err := e.pipelineConfig.BuildPipeline(config.DefaultFactory(), res)
	if err != nil {
		return nil, fmt.Errorf("build pipeline %q: %w", e.pipelineConfig.Pipeline.Name, err)
	}
	return p, nil
}

// DefaultPipeline 返回内置节点链：
// KNN 召回 → 大圆距离过滤 + 可选 CEL 过滤（保留数达到 TopK 即停止）→ 加权分数稳定排序。
func DefaultPipeline(res *pipeline.Resources) *pipeline.Pipeline {
	return &pipeline.Pipeline{
		Nodes: []pipeline.Node{
			recall.NewKNN(res),
			&filter.FilterNode{
				Filters: []filter.Filter{
					filter.NewGeoDistanceFilter(0),
					filter.NewExprFilter(""),
				},
				LimitFromContext: true,
			},
			&rerank.WeightedScoreNode{},
		},
	}
}

// Model 返回注入的模型产物（可能为 nil）。
func (e *Engine) Model() *artifact.Model { return e.model }

// Recommend 返回 (lat, lon) 附近 maxDistanceKM 以内最多 topK 家餐厅，按加权分数降序。
func (e *Engine) Recommend(ctx context.Context, lat, lon float64, topK int, maxDistanceKM float64) ([]Recommendation, error) {
	return e.Query(ctx, Request{
		Location:      core.Coordinate{Latitude: lat, Longitude: lon},
		TopK:          topK,
		MaxDistanceKM: maxDistanceKM,
	})
}

// Query 执行一次推荐请求。
func (e *Engine) Query(ctx context.Context, req Request) (out []Recommendation, err error) {
	start := time.Now()
	defer func() {
		metrics.RecommendRequests.WithLabelValues(requestOutcome(out, err)).Inc()
		metrics.RecommendDuration.Observe(time.Since(start).Seconds())
		if err == nil {
			metrics.RecommendResults.Observe(float64(len(out)))
		}
	}()

	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if e.model == nil {
		return nil, core.ErrModelNotLoaded
	}
	if len(e.model.Records) == 0 {
		return []Recommendation{}, nil
	}

	rctx := &core.RecommendContext{
		Location:      req.Location,
		TopK:          req.TopK,
		MaxDistanceKM: req.MaxDistanceKM,
		Where:         req.Where,
	}
	items, err := e.pipeline.Run(ctx, rctx, nil)
	if err != nil {
		return nil, err
	}
	items = bound(rctx, items)

	out = make([]Recommendation, 0, len(items))
	for _, it := range items {
		out = append(out, toRecommendation(it))
	}
	return out, nil
}

// RecommendByPlace 先把地名解析为坐标，再执行推荐。解析失败时返回 GEOCODE_NOT_FOUND，不会执行推荐。
func (e *Engine) RecommendByPlace(ctx context.Context, place string, topK int) (*PlaceResult, error) {
	loc, err := e.ResolvePlace(ctx, place)
	if err != nil {
		return nil, err
	}

	recs, err := e.Recommend(ctx, loc.Latitude, loc.Longitude, topK, e.maxDistanceKM)
	if err != nil {
		return nil, err
	}
	return &PlaceResult{Place: place, Location: loc, Recommendations: recs}, nil
}

// ResolvePlace 用配置的 Geocoder 解析地名；解析失败统一归为 GEOCODE_NOT_FOUND。
func (e *Engine) ResolvePlace(ctx context.Context, place string) (geocode.Location, error) {
	if e.geocoder == nil {
		return geocode.Location{}, core.NewDomainError(core.ModuleEngine, core.ErrorCodeNotSupported, "no geocoder configured")
	}
	loc, err := e.geocoder.Geocode(ctx, place)
	if err != nil {
		if core.IsGeocodeNotFound(err) {
			return geocode.Location{}, err
		}
		return geocode.Location{}, core.WrapDomainError(core.ModuleGeocode, core.ErrorCodeGeocodeNotFound,
			fmt.Sprintf("no coordinates for %q", place), err)
	}
	return loc, nil
}

// bound 用真实坐标重算每个候选的大圆距离，剔除超出 MaxDistanceKM 的候选，并截断到 TopK。
// 配置的节点链无论如何组合，返回结果都满足请求的距离与数量约束。
func bound(rctx *core.RecommendContext, items []*core.Item) []*core.Item {
	out := make([]*core.Item, 0, min(len(items), rctx.TopK))
	dropped := 0
	for _, it := range items {
		if len(out) >= rctx.TopK {
			break
		}
		if it == nil || it.Restaurant == nil {
			continue
		}
		d := filter.HaversineKM(rctx.Location, it.Restaurant.Coordinate())
		if d > rctx.MaxDistanceKM {
			dropped++
			continue
		}
		if it.Features == nil {
			it.Features = make(map[string]float64, 2)
		}
		it.Features[core.FeatureKeyDistanceKM] = d
		out = append(out, it)
	}
	if dropped > 0 {
		log := logging.Component("engine")
		log.Warn().Int("dropped", dropped).Float64("max_distance_km", rctx.MaxDistanceKM).
			Msg("pipeline returned candidates beyond the distance ceiling")
	}
	return out
}

func validateRequest(req Request) error {
	lat, lon := req.Location.Latitude, req.Location.Longitude
	switch {
	case math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180:
		return invalid(fmt.Sprintf("invalid location (%v, %v)", lat, lon))
	case req.TopK <= 0:
		return invalid(fmt.Sprintf("top_k must be positive, got %d", req.TopK))
	case math.IsNaN(req.MaxDistanceKM) || req.MaxDistanceKM <= 0:
		return invalid(fmt.Sprintf("max_distance_km must be positive, got %v", req.MaxDistanceKM))
	}
	if req.Where != "" {
		if _, err := dsl.Compile(req.Where); err != nil {
			return core.WrapDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, "invalid where expression", err)
		}
	}
	return nil
}

func invalid(msg string) error {
	return core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, msg)
}

func toRecommendation(it *core.Item) Recommendation {
	r := it.Restaurant
	d, _ := it.Feature(core.FeatureKeyDistanceKM)
	return Recommendation{
		Name:          r.Name,
		Rating:        r.Rating,
		ReviewCount:   r.ReviewCount,
		DistanceKM:    round(d, 2),
		Address:       r.Address,
		Area:          r.Area,
		Cuisine:       r.Cuisine,
		WeightedScore: round(r.WeightedScore, 3),
		Popularity:    r.Popularity,
	}
}

func round(x float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(x*p) / p
}

func requestOutcome(out []Recommendation, err error) string {
	switch {
	case err == nil && len(out) == 0:
		return "empty"
	case err == nil:
		return "ok"
	case core.IsModelNotLoaded(err):
		return "model_not_loaded"
	default:
		return "error"
	}
}
