// Package geocode 把地名解析为坐标，供按地名推荐使用。
//
// 推荐引擎本身只接收坐标，不依赖本包。
package geocode

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rushteam/nearbite/core"
	"github.com/rushteam/nearbite/logging"
	"github.com/rushteam/nearbite/metrics"
)

// Location 是解析结果。
type Location struct {
	core.Coordinate
	// Address 是解析出的完整地址（内置地名表中为描述）
	Address string
	// Source 是给出结果的 Geocoder 名称
	Source string
}

// Geocoder 把地名解析为坐标。无结果时返回 GEOCODE_NOT_FOUND 错误。
type Geocoder interface {
	Name() string
	Geocode(ctx context.Context, place string) (Location, error)
}

// notFound 构造 GEOCODE_NOT_FOUND 错误
func notFound(place string, cause error) error {
	msg := fmt.Sprintf("no coordinates for %q", place)
	if cause != nil {
		return core.WrapDomainError(core.ModuleGeocode, core.ErrorCodeGeocodeNotFound, msg, cause)
	}
	return core.NewDomainError(core.ModuleGeocode, core.ErrorCodeGeocodeNotFound, msg)
}

// WithRegion 在地名不含 region（忽略大小写）时追加 ", <region>"。
func WithRegion(place, region string) string {
	place = strings.TrimSpace(place)
	if region == "" || strings.Contains(strings.ToLower(place), strings.ToLower(region)) {
		return place
	}
	return place + ", " + region
}

// Chain 依次尝试多个 Geocoder，返回第一个命中的结果。
// 所有 Geocoder 都未命中时返回 GEOCODE_NOT_FOUND（携带最后一个非 not-found 错误作为原因）。
type Chain struct {
	Geocoders []Geocoder
}

func NewChain(geocoders ...Geocoder) *Chain {
	return &Chain{Geocoders: geocoders}
}

func (c *Chain) Name() string { return "chain" }

func (c *Chain) Geocode(ctx context.Context, place string) (Location, error) {
	log := logging.Component("geocode")
	place = strings.TrimSpace(place)
	if place == "" {
		return Location{}, notFound(place, nil)
	}

	var lastErr error
	for _, g := range c.Geocoders {
		loc, err := g.Geocode(ctx, place)
		switch {
		case err == nil:
			metrics.GeocodeLookups.WithLabelValues(g.Name(), "hit").Inc()
			log.Debug().Str("place", place).Str("geocoder", g.Name()).
				Float64("lat", loc.Latitude).Float64("lon", loc.Longitude).
				Msg("place resolved")
			return loc, nil
		case core.IsGeocodeNotFound(err):
			metrics.GeocodeLookups.WithLabelValues(g.Name(), "not_found").Inc()
		default:
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return Location{}, err
			}
			metrics.GeocodeLookups.WithLabelValues(g.Name(), "error").Inc()
			log.Warn().Err(err).Str("place", place).Str("geocoder", g.Name()).Msg("geocoder failed")
			lastErr = err
		}
	}
	return Location{}, notFound(place, lastErr)
}

// lookupOutcome 把查询结果映射为 metrics 的 outcome 标签。
func lookupOutcome(err error) string {
	switch {
	case err == nil:
		return "hit"
	case core.IsGeocodeNotFound(err):
		return "not_found"
	default:
		return "error"
	}
}
