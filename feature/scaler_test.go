package feature

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/nearbite/core"
)

func TestStandardScaler_Fit(t *testing.T) {
	matrix := [][]float64{
		{1, 10, 100},
		{2, 10, 200},
		{3, 10, 300},
	}
	s := NewStandardScaler("a", "b", "c")
	require.NoError(t, s.Fit(matrix))

	p := s.Params()
	assert.Equal(t, []float64{2, 10, 200}, p.Mean)
	assert.InDelta(t, math.Sqrt(2.0/3.0), p.Std[0], 1e-12)
	// 常数列的 std 替换为 1
	assert.Equal(t, 1.0, p.Std[1])

	// 训练均值映射到 0
	z, err := s.Transform([]float64{2, 10, 200})
	require.NoError(t, err)
	for _, v := range z {
		assert.InDelta(t, 0, v, 1e-12)
	}

	// 常数列的任意值只做平移
	z, err = s.Transform([]float64{2, 12, 200})
	require.NoError(t, err)
	assert.InDelta(t, 2, z[1], 1e-12)
}

func TestStandardScaler_Errors(t *testing.T) {
	s := NewStandardScaler()
	_, err := s.Transform([]float64{1})
	assert.ErrorIs(t, err, ErrScalerNotFitted)

	assert.True(t, core.IsInvalidInput(s.Fit(nil)))
	assert.True(t, core.IsInvalidInput(s.Fit([][]float64{{1, 2}, {1}})))
	assert.True(t, core.IsInvalidInput(NewStandardScaler("a").Fit([][]float64{{1, 2}})))

	require.NoError(t, s.Fit([][]float64{{1, 2}}))
	_, err = s.Transform([]float64{1, 2, 3})
	assert.True(t, core.IsInvalidInput(err))
}

func TestStandardScaler_FromParams(t *testing.T) {
	s, err := NewStandardScalerFromParams(ScalerParams{
		Names: []string{"a", "b"},
		Mean:  []float64{1, 2},
		Std:   []float64{2, 0},
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 1}, s.Params().Std)
	z, err := s.Transform([]float64{5, 7})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 5}, z)
}

func TestComputeStatistics(t *testing.T) {
	st := ComputeStatistics([]float64{4, 1, 3, 2})
	assert.Equal(t, 2.5, st.Mean)
	assert.Equal(t, 1.0, st.Min)
	assert.Equal(t, 4.0, st.Max)
	assert.Equal(t, 2.5, st.Median)
	assert.InDelta(t, math.Sqrt(1.25), st.Std, 1e-12)
}
