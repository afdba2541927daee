// Package index 提供候选索引（core.CandidateIndex）的实现。
package index

import (
	"fmt"
	"math"
	"sort"

	"github.com/rushteam/nearbite/core"
)

// MetricEuclidean 是唯一支持的距离度量
const MetricEuclidean = "euclidean"

var (
	// ErrEmptyIndex 表示在零行矩阵上构建索引
	ErrEmptyIndex = core.NewDomainError(core.ModuleIndex, core.ErrorCodeInvalidInput, "index: cannot fit on zero rows")

	// ErrIndexNotFitted 表示在 Fit 之前查询
	ErrIndexNotFitted = core.NewDomainError(core.ModuleIndex, core.ErrorCodeInvalidInput, "index: not fitted")
)

// Flat 是暴力扫描的欧氏距离近邻索引。
//
// 语料规模在千级以内，线性扫描 + 排序足够；距离相同时按行号升序，
// 保证结果可复现。Fit 之后只读，可被多个查询并发共享。
type Flat struct {
	kMax   int
	dim    int
	matrix [][]float64
}

// NewFlat 创建索引，kMax 为默认近邻预算（<= 0 时使用 core.DefaultKMax）。
func NewFlat(kMax int) *Flat {
	if kMax <= 0 {
		kMax = core.DefaultKMax
	}
	return &Flat{kMax: kMax}
}

func (f *Flat) Metric() string { return MetricEuclidean }

// Len 返回索引行数
func (f *Flat) Len() int { return len(f.matrix) }

// KMax 返回默认近邻预算（已截断到语料规模）
func (f *Flat) KMax() int {
	if n := len(f.matrix); n > 0 && f.kMax > n {
		return n
	}
	return f.kMax
}

// Fit 拷贝并保存缩放后的特征矩阵。
func (f *Flat) Fit(matrix [][]float64) error {
	if len(matrix) == 0 {
		return ErrEmptyIndex
	}
	dim := len(matrix[0])
	if dim == 0 {
		return core.NewDomainError(core.ModuleIndex, core.ErrorCodeInvalidInput, "index: zero-width rows")
	}
	cp := make([][]float64, len(matrix))
	for i, row := range matrix {
		if len(row) != dim {
			return core.NewDomainError(core.ModuleIndex, core.ErrorCodeInvalidInput,
				fmt.Sprintf("index: row %d has %d columns, want %d", i, len(row), dim))
		}
		cp[i] = append([]float64(nil), row...)
	}
	f.matrix = cp
	f.dim = dim
	if f.kMax > len(cp) {
		f.kMax = len(cp)
	}
	return nil
}

// Query 返回距离 vector 最近的 min(k, Len()) 行，按距离升序。
func (f *Flat) Query(vector []float64, k int) ([]core.Neighbor, error) {
	if len(f.matrix) == 0 {
		return nil, ErrIndexNotFitted
	}
	if len(vector) != f.dim {
		return nil, core.NewDomainError(core.ModuleIndex, core.ErrorCodeInvalidInput,
			fmt.Sprintf("index: query has %d columns, want %d", len(vector), f.dim))
	}
	if k <= 0 {
		k = f.KMax()
	}
	if k > len(f.matrix) {
		k = len(f.matrix)
	}

	all := make([]core.Neighbor, len(f.matrix))
	for i, row := range f.matrix {
		all[i] = core.Neighbor{Row: i, Distance: euclideanDistance(vector, row)}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Distance < all[j].Distance
	})
	return all[:k], nil
}

// euclideanDistance 计算欧氏距离
func euclideanDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}

// Snapshot 是 Flat 的可持久化形态（包含拟合矩阵）。
type Snapshot struct {
	Metric string      `json:"metric"`
	KMax   int         `json:"k_max"`
	Matrix [][]float64 `json:"matrix"`
}

// Snapshot 导出索引快照。
func (f *Flat) Snapshot() Snapshot {
	return Snapshot{Metric: MetricEuclidean, KMax: f.KMax(), Matrix: f.matrix}
}

// Restore 从快照恢复索引。
func Restore(s Snapshot) (*Flat, error) {
	if s.Metric != "" && s.Metric != MetricEuclidean {
		return nil, core.NewDomainError(core.ModuleIndex, core.ErrorCodeNotSupported, "index: unsupported metric "+s.Metric)
	}
	f := NewFlat(s.KMax)
	if err := f.Fit(s.Matrix); err != nil {
		return nil, err
	}
	return f, nil
}

var _ core.CandidateIndex = (*Flat)(nil)
