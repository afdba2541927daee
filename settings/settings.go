// Package settings 加载 nearbite 的运行配置。
//
// 优先级：环境变量（NEARBITE_*）> YAML 配置文件 > 内置默认值。
package settings

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/rushteam/nearbite/core"
	"github.com/rushteam/nearbite/logging"
)

const (
	// EnvPrefix 是环境变量前缀
	EnvPrefix = "NEARBITE_"

	// ConfigPathEnvVar 可覆盖配置文件路径
	ConfigPathEnvVar = "NEARBITE_CONFIG"
)

// 模型产物后端
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Settings 是完整的运行配置。
type Settings struct {
	Data      Data           `koanf:"data"`
	Model     Model          `koanf:"model"`
	Train     Train          `koanf:"train"`
	Recommend Recommend      `koanf:"recommend"`
	Geocode   Geocode        `koanf:"geocode"`
	Logging   logging.Config `koanf:"logging"`
}

// Data 训练输入
type Data struct {
	// Paths 按优先级排列的候选 CSV 路径，训练时取第一个存在的文件
	Paths []string `koanf:"paths" validate:"required,min=1,dive,required"`
}

// Model 模型产物存储
type Model struct {
	Backend string `koanf:"backend" validate:"oneof=file redis"`
	Dir     string `koanf:"dir" validate:"required_if=Backend file"`
	Keep    int    `koanf:"keep" validate:"gte=1"`

	RedisAddr   string `koanf:"redis_addr" validate:"required_if=Backend redis"`
	RedisDB     int    `koanf:"redis_db" validate:"gte=0"`
	RedisPrefix string `koanf:"redis_prefix"`
}

// Train 训练参数
type Train struct {
	KMax               int     `koanf:"k_max" validate:"gte=1"`
	DefaultRating      float64 `koanf:"default_rating" validate:"gte=0,lte=5"`
	DefaultReviewCount int64   `koanf:"default_review_count" validate:"gte=0"`
}

// Recommend 推荐参数
type Recommend struct {
	TopK          int                    `koanf:"top_k" validate:"gte=1"`
	MaxDistanceKM float64                `koanf:"max_distance_km" validate:"gt=0"`
	Placeholders  core.QueryPlaceholders `koanf:"placeholders"`

	// Pipeline 是可选的节点链 YAML 路径，为空时使用内置链路
	Pipeline string `koanf:"pipeline"`
}

// Geocode 地名解析
type Geocode struct {
	// Online 为 false 时只使用内置地名表
	Online    bool          `koanf:"online"`
	URL       string        `koanf:"url" validate:"required_if=Online true"`
	UserAgent string        `koanf:"user_agent" validate:"required_if=Online true"`
	Region    string        `koanf:"region"`
	Timeout   time.Duration `koanf:"timeout" validate:"gte=0"`

	// IPURL 是按出口 IP 定位的服务（ipinfo.io 兼容），用于 recommend --here
	IPURL string `koanf:"ip_url" validate:"omitempty,url"`

	// RateLimit 每秒请求数（Nominatim 使用策略要求 <= 1）
	RateLimit float64 `koanf:"rate_limit" validate:"gt=0"`

	// BreakerFailures 连续失败多少次后熔断
	BreakerFailures uint32        `koanf:"breaker_failures" validate:"gte=1"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout" validate:"gte=0"`
}

// Default 返回内置默认配置。
func Default() *Settings {
	return &Settings{
		Data: Data{
			Paths: []string{
				"data/raw/malang_restaurants_real.csv",
				"data/raw/malang_restaurants_google.csv",
				"data/raw/malang_restaurants_osm.csv",
			},
		},
		Model: Model{
			Backend:     BackendFile,
			Dir:         "models",
			Keep:        2,
			RedisAddr:   "localhost:6379",
			RedisPrefix: "nearbite:model",
		},
		Train: Train{
			KMax:               core.DefaultKMax,
			DefaultRating:      core.DefaultRating,
			DefaultReviewCount: core.DefaultReviewCount,
		},
		Recommend: Recommend{
			TopK:          core.DefaultTopK,
			MaxDistanceKM: core.DefaultMaxDistanceKM,
			Placeholders:  core.DefaultQueryPlaceholders(),
		},
		Geocode: Geocode{
			Online:          true,
			URL:             "https://nominatim.openstreetmap.org",
			UserAgent:       "malang_food_recommender",
			IPURL:           "https://ipinfo.io",
			Region:          "Malang",
			Timeout:         10 * time.Second,
			RateLimit:       1,
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
		Logging: logging.Config{Level: "info", Format: "console"},
	}
}

// Load 依次加载默认值、配置文件（path 为空时读 NEARBITE_CONFIG）与环境变量，并校验。
func Load(path string) (*Settings, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = os.Getenv(ConfigPathEnvVar)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// NEARBITE_RECOMMEND_TOP_K -> recommend.top_k
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	s := &Settings{}
	if err := k.Unmarshal("", s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return s, nil
}

// 嵌套层级超过两级的 key 需要显式映射
var envMappings = map[string]string{
	"recommend_placeholder_rating":         "recommend.placeholders.rating",
	"recommend_placeholder_review_count":   "recommend.placeholders.review_count",
	"recommend_placeholder_popularity":     "recommend.placeholders.popularity",
	"recommend_placeholder_weighted_score": "recommend.placeholders.weighted_score",
}

// envTransformFunc 把环境变量名转为 koanf 路径：去掉前缀，第一个下划线作为层级分隔。
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	if key == "config" {
		return ""
	}
	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	section, rest, found := strings.Cut(key, "_")
	if !found {
		return key
	}
	return section + "." + rest
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// 错误信息使用 koanf 路径名
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("koanf"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate 校验配置
func (s *Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, e := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", e.Namespace(), e.Tag()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}
