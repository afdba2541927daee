package feature

import (
	"fmt"
	"math"
	"sort"

	"github.com/rushteam/nearbite/core"
)

// ErrScalerNotFitted 表示在 Fit 之前调用了 Transform。
var ErrScalerNotFitted = core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput, "scaler: not fitted")

// ScalerParams 是 StandardScaler 的可持久化参数，按 Names 的列顺序对齐。
type ScalerParams struct {
	Names []string  `json:"names"`
	Mean  []float64 `json:"mean"`
	Std   []float64 `json:"std"`
}

// StandardScaler Z-score 标准化（按列）
// 公式: z = (x - μ) / σ
// Fit 学习每列的均值与总体标准差；常数列的 σ 记为 1，Transform 退化为去均值。
type StandardScaler struct {
	names []string
	mean  []float64
	std   []float64
}

// NewStandardScaler 创建未拟合的标准化器；names 为列名（可为空）。
func NewStandardScaler(names ...string) *StandardScaler {
	return &StandardScaler{names: names}
}

// NewStandardScalerFromParams 从持久化参数恢复已拟合的标准化器。
func NewStandardScalerFromParams(p ScalerParams) (*StandardScaler, error) {
	if len(p.Mean) == 0 || len(p.Mean) != len(p.Std) {
		return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput,
			fmt.Sprintf("scaler: mean/std length mismatch (%d/%d)", len(p.Mean), len(p.Std)))
	}
	if len(p.Names) != 0 && len(p.Names) != len(p.Mean) {
		return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput, "scaler: names length mismatch")
	}
	s := &StandardScaler{
		names: append([]string(nil), p.Names...),
		mean:  append([]float64(nil), p.Mean...),
		std:   append([]float64(nil), p.Std...),
	}
	for i, sd := range s.std {
		if sd == 0 || math.IsNaN(sd) {
			s.std[i] = 1
		}
	}
	return s, nil
}

// Fitted 报告是否已拟合
func (s *StandardScaler) Fitted() bool { return len(s.mean) > 0 }

// Fit 按列计算均值与标准差。
func (s *StandardScaler) Fit(matrix [][]float64) error {
	if len(matrix) == 0 {
		return core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput, "scaler: fit on empty matrix")
	}
	dim := len(matrix[0])
	if dim == 0 {
		return core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput, "scaler: zero-width matrix")
	}
	if len(s.names) != 0 && len(s.names) != dim {
		return core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput,
			fmt.Sprintf("scaler: %d names for %d columns", len(s.names), dim))
	}

	mean := make([]float64, dim)
	std := make([]float64, dim)
	col := make([]float64, len(matrix))
	for j := 0; j < dim; j++ {
		for i, row := range matrix {
			if len(row) != dim {
				return core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput,
					fmt.Sprintf("scaler: row %d has %d columns, want %d", i, len(row), dim))
			}
			col[i] = row[j]
		}
		stats := ComputeStatistics(col)
		mean[j] = stats.Mean
		std[j] = stats.Std
		// 常数列：避免浮点累加误差产生的极小方差，直接按 0 方差处理
		if stats.Min == stats.Max || stats.Std == 0 {
			std[j] = 1
		}
	}
	s.mean = mean
	s.std = std
	return nil
}

// Transform 使用拟合得到的统计量标准化单个向量，返回新切片。
func (s *StandardScaler) Transform(vec []float64) ([]float64, error) {
	if !s.Fitted() {
		return nil, ErrScalerNotFitted
	}
	if len(vec) != len(s.mean) {
		return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput,
			fmt.Sprintf("scaler: vector has %d columns, want %d", len(vec), len(s.mean)))
	}
	out := make([]float64, len(vec))
	for j, x := range vec {
		out[j] = (x - s.mean[j]) / s.std[j]
	}
	return out, nil
}

// TransformMatrix 对矩阵逐行 Transform。
func (s *StandardScaler) TransformMatrix(matrix [][]float64) ([][]float64, error) {
	out := make([][]float64, len(matrix))
	for i, row := range matrix {
		v, err := s.Transform(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// Params 导出持久化参数（拷贝）。
func (s *StandardScaler) Params() ScalerParams {
	return ScalerParams{
		Names: append([]string(nil), s.names...),
		Mean:  append([]float64(nil), s.mean...),
		Std:   append([]float64(nil), s.std...),
	}
}

// FeatureStatistics 单列统计信息
type FeatureStatistics struct {
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
}

// ComputeStatistics 计算均值、总体标准差、最值与中位数。
func ComputeStatistics(values []float64) *FeatureStatistics {
	if len(values) == 0 {
		return &FeatureStatistics{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	stats := &FeatureStatistics{
		Min: sorted[0],
		Max: sorted[len(sorted)-1],
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	stats.Mean = sum / float64(len(values))

	variance := 0.0
	for _, v := range values {
		variance += (v - stats.Mean) * (v - stats.Mean)
	}
	stats.Std = math.Sqrt(variance / float64(len(values)))

	n := len(sorted)
	if n%2 == 1 {
		stats.Median = sorted[n/2]
	} else {
		stats.Median = (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return stats
}
