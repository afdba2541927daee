package geocode

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/rushteam/nearbite/logging"
)

// NominatimConfig 配置 OpenStreetMap Nominatim 客户端。
type NominatimConfig struct {
	BaseURL   string
	UserAgent string
	// Region 非空时追加到地名后（地名已包含时不追加）
	Region  string
	Timeout time.Duration

	// RateLimit 每秒请求数；Nominatim 公共实例要求不超过 1
	RateLimit float64

	BreakerFailures uint32
	BreakerTimeout  time.Duration

	// Rewrite 可选，把地名改写为查询串（例如 Gazetteer.Query）
	Rewrite func(string) string
}

// Nominatim 是 Nominatim 搜索接口的客户端，带限流与熔断。
type Nominatim struct {
	cfg     NominatimConfig
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[*Location]
}

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func NewNominatim(cfg NominatimConfig) *Nominatim {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
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

	n := &Nominatim{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
	}
	n.breaker = newBreaker("nominatim", cfg.BreakerFailures, cfg.BreakerTimeout)
	return n
}

func (n *Nominatim) Name() string { return "nominatim" }

func (n *Nominatim) Geocode(ctx context.Context, place string) (Location, error) {
	query := place
	if n.cfg.Rewrite != nil {
		query = n.cfg.Rewrite(place)
	}
	query = WithRegion(query, n.cfg.Region)

	if err := n.limiter.Wait(ctx); err != nil {
		return Location{}, err
	}
	loc, err := n.breaker.Execute(func() (*Location, error) {
		return n.search(ctx, query)
	})
	if err != nil {
		return Location{}, fmt.Errorf("nominatim search %q: %w", query, err)
	}
	if loc == nil {
		return Location{}, notFound(place, nil)
	}
	return *loc, nil
}

// search 返回 (nil, nil) 表示服务正常但没有结果，不计入熔断失败。
func (n *Nominatim) search(ctx context.Context, query string) (*Location, error) {
	u, err := url.Parse(n.cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	u = u.JoinPath("search")
	q := u.Query()
	q.Set("q", query)
	q.Set("format", "jsonv2")
	q.Set("limit", "1")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", n.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parse lat %q: %w", results[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parse lon %q: %w", results[0].Lon, err)
	}
	loc := &Location{Address: results[0].DisplayName, Source: n.Name()}
	loc.Latitude = lat
	loc.Longitude = lon
	return loc, nil
}

// newBreaker 创建连续失败 failures 次后熔断、timeout 后半开的熔断器。
func newBreaker(name string, failures uint32, timeout time.Duration) *gobreaker.CircuitBreaker[*Location] {
	return gobreaker.NewCircuitBreaker[*Location](gobreaker.Settings{
		Name:    name,
		Timeout: timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log := logging.Component("geocode")
			log.Warn().Str("breaker", name).
				Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})
}
