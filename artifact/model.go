// Package artifact 定义模型产物（Scaler + 候选索引 + 处理后的餐厅表）及其持久化。
//
// 一次训练产出一个完整产物，整体替换上一个；服务端只读取已经切换完成的产物。
package artifact

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/nearbite/core"
	"github.com/rushteam/nearbite/feature"
	"github.com/rushteam/nearbite/index"
)

// 产物中的对象名（文件名去掉 .json / KV key 后缀）。
const (
	ObjectScaler  = "scaler"
	ObjectIndex   = "index"
	ObjectRecords = "records"
	ObjectInfo    = "model_info"
)

// requiredObjects 必须同时存在，缺任何一个都视为产物不可用。
var requiredObjects = []string{ObjectScaler, ObjectIndex, ObjectRecords}

// Info 是产物的描述信息。
type Info struct {
	Version        string    `json:"version"`
	ModelType      string    `json:"model_type"`
	TrainedSamples int       `json:"trained_samples"`
	Neighbors      int       `json:"n_neighbors"`
	Metric         string    `json:"metric"`
	Features       []string  `json:"features"`
	DataSource     string    `json:"data_source"`
	MaxPopularity  float64   `json:"max_popularity"`
	CreatedAt      time.Time `json:"created_at"`
}

// Model 是加载到内存中的模型产物，加载后只读。
type Model struct {
	Info    Info
	Scaler  *feature.StandardScaler
	Index   *index.Flat
	Records []*core.Restaurant
}

// Validate 检查三部分是否一致：Scaler 已拟合、索引行数与餐厅表对齐。
func (m *Model) Validate() error {
	switch {
	case m == nil:
		return notLoaded("nil model", nil)
	case m.Scaler == nil || !m.Scaler.Fitted():
		return notLoaded("scaler missing or not fitted", nil)
	case m.Index == nil || m.Index.Len() == 0:
		return notLoaded("index missing or empty", nil)
	case m.Index.Len() != len(m.Records):
		return notLoaded(fmt.Sprintf("index has %d rows but %d records", m.Index.Len(), len(m.Records)), nil)
	case len(m.Scaler.Params().Mean) != feature.Dim:
		return notLoaded(fmt.Sprintf("scaler has %d columns, want %d", len(m.Scaler.Params().Mean), feature.Dim), nil)
	}
	return nil
}

// Repository 是模型产物的持久化后端。
//
// Save 必须是原子的：写入失败不能破坏已有的有效产物；
// Load 在产物缺失、不完整或损坏时返回 MODEL_NOT_LOADED。
type Repository interface {
	Name() string
	Save(ctx context.Context, m *Model) (version string, err error)
	Load(ctx context.Context) (*Model, error)
}

// encode 把产物序列化为对象名 → JSON。
func encode(m *Model) (map[string][]byte, error) {
	objects := map[string]any{
		ObjectScaler:  m.Scaler.Params(),
		ObjectIndex:   m.Index.Snapshot(),
		ObjectRecords: m.Records,
		ObjectInfo:    m.Info,
	}
	out := make(map[string][]byte, len(objects))
	for name, v := range objects {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", name, err)
		}
		out[name] = b
	}
	return out, nil
}

// decode 并行反序列化三个核心对象（info 可选）。
func decode(ctx context.Context, raw map[string][]byte) (*Model, error) {
	for _, name := range requiredObjects {
		if len(raw[name]) == 0 {
			return nil, notLoaded("artifact incomplete: missing "+name, nil)
		}
	}

	var (
		params   feature.ScalerParams
		snapshot index.Snapshot
		records  []*core.Restaurant
		info     Info
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error { return unmarshal(raw, ObjectScaler, &params) })
	g.Go(func() error { return unmarshal(raw, ObjectIndex, &snapshot) })
	g.Go(func() error { return unmarshal(raw, ObjectRecords, &records) })
	if len(raw[ObjectInfo]) > 0 {
		g.Go(func() error { return unmarshal(raw, ObjectInfo, &info) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	scaler, err := feature.NewStandardScalerFromParams(params)
	if err != nil {
		return nil, notLoaded("corrupt scaler", err)
	}
	idx, err := index.Restore(snapshot)
	if err != nil {
		return nil, notLoaded("corrupt index", err)
	}

	m := &Model{Info: info, Scaler: scaler, Index: idx, Records: records}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func unmarshal(raw map[string][]byte, name string, v any) error {
	if err := json.Unmarshal(raw[name], v); err != nil {
		return notLoaded("corrupt "+name, err)
	}
	return nil
}

func notLoaded(msg string, err error) error {
	return core.WrapDomainError(core.ModuleArtifact, core.ErrorCodeModelNotLoaded, msg, err)
}

// VersionLayout 是版本号的时间格式，字典序即时间序。
const VersionLayout = "20060102T150405.000000000Z"

// NewVersion 生成按时间排序的版本号
func NewVersion(now time.Time) string {
	return now.UTC().Format(VersionLayout)
}

// IsVersion 判断 name 是否为 NewVersion 生成的版本号。
func IsVersion(name string) bool {
	_, err := time.Parse(VersionLayout, name)
	return err == nil
}
