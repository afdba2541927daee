package geocode

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/rushteam/nearbite/metrics"
)

// IPLocatorConfig 配置按出口 IP 定位的客户端（ipinfo.io 兼容接口）。
type IPLocatorConfig struct {
	BaseURL string
	Timeout time.Duration

	RateLimit       float64
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// IPLocator 按出口 IP 估计当前位置，精度为城市级。
// 用于调用方既没有坐标也没有地名的场景。
type IPLocator struct {
	cfg     IPLocatorConfig
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[*Location]
}

type ipinfoResult struct {
	Loc     string `json:"loc"` // "lat,lon"
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"`
}

func NewIPLocator(cfg IPLocatorConfig) *IPLocator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 1
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}
	return &IPLocator{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		breaker: newBreaker("ipinfo", cfg.BreakerFailures, cfg.BreakerTimeout),
	}
}

func (l *IPLocator) Name() string { return "ipinfo" }

// Locate 返回当前出口 IP 对应的位置；响应中没有坐标时返回 GEOCODE_NOT_FOUND。
func (l *IPLocator) Locate(ctx context.Context) (loc Location, err error) {
	defer func() {
		metrics.GeocodeLookups.WithLabelValues(l.Name(), lookupOutcome(err)).Inc()
	}()

	if err := l.limiter.Wait(ctx); err != nil {
		return Location{}, err
	}
	found, err := l.breaker.Execute(func() (*Location, error) {
		return l.fetch(ctx)
	})
	if err != nil {
		return Location{}, fmt.Errorf("ip lookup: %w", err)
	}
	if found == nil {
		return Location{}, notFound("current location", nil)
	}
	return *found, nil
}

// fetch 返回 (nil, nil) 表示服务正常但没有坐标，不计入熔断失败。
func (l *IPLocator) fetch(ctx context.Context) (*Location, error) {
	u, err := url.Parse(l.cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.JoinPath("json").String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}

	var res ipinfoResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	latStr, lonStr, ok := strings.Cut(res.Loc, ",")
	if !ok {
		return nil, nil
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return nil, fmt.Errorf("parse loc %q: %w", res.Loc, err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return nil, fmt.Errorf("parse loc %q: %w", res.Loc, err)
	}

	loc := &Location{Address: joinNonEmpty(res.City, res.Region, res.Country), Source: l.Name()}
	loc.Latitude = lat
	loc.Longitude = lon
	return loc, nil
}

func joinNonEmpty(parts ...string) string {
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}
