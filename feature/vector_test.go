package feature

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/nearbite/core"
)

func TestWeightedScore(t *testing.T) {
	tests := []struct {
		name          string
		rating        float64
		popularity    float64
		maxPopularity float64
		want          float64
	}{
		{name: "most popular, top rating", rating: 5, popularity: 3, maxPopularity: 3, want: 5},
		{name: "no reviews", rating: 4, popularity: 0, maxPopularity: 3, want: 2.8},
		{name: "half popularity", rating: 4, popularity: 1.5, maxPopularity: 3, want: 2.8 + 0.75},
		{name: "zero max popularity", rating: 4, popularity: 0, maxPopularity: 0, want: 2.8},
		{name: "zero rating", rating: 0, popularity: 0, maxPopularity: 1, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, WeightedScore(tt.rating, tt.popularity, tt.maxPopularity), 1e-9)
		})
	}
}

func TestEngineer(t *testing.T) {
	records := []*core.Restaurant{
		{Name: "A", Rating: 4.5, ReviewCount: 1280},
		{Name: "B", Rating: 3.0, ReviewCount: 0},
		{Name: "C", Rating: 5.0, ReviewCount: 99},
	}
	maxPop := Engineer(records)
	assert.InDelta(t, math.Log1p(1280), maxPop, 1e-12)

	for _, r := range records {
		assert.InDelta(t, math.Log1p(float64(r.ReviewCount)), r.Popularity, 1e-12)
		assert.InDelta(t, r.Rating/5, r.QualityScore, 1e-12)
		assert.GreaterOrEqual(t, r.WeightedScore, 0.0)
		assert.LessOrEqual(t, r.WeightedScore, 5.0)
	}
	assert.InDelta(t, 0.7*4.5+0.3*5, records[0].WeightedScore, 1e-9)
	assert.InDelta(t, 0.7*3.0, records[1].WeightedScore, 1e-9)
}

func TestEngineer_AllZeroReviews(t *testing.T) {
	records := []*core.Restaurant{{Rating: 4}, {Rating: 2}}
	assert.Equal(t, 0.0, Engineer(records))
	assert.InDelta(t, 2.8, records[0].WeightedScore, 1e-9)
	assert.False(t, math.IsNaN(records[1].WeightedScore))
}

func TestValidate(t *testing.T) {
	ok := &core.Restaurant{Name: "A", Latitude: -7.9, Longitude: 112.6, Rating: 4, ReviewCount: 1}
	require.NoError(t, Validate(ok))

	bad := []*core.Restaurant{
		nil,
		{Latitude: math.NaN(), Longitude: 112.6},
		{Latitude: -91, Longitude: 112.6},
		{Latitude: -7.9, Longitude: 181},
		{Latitude: -7.9, Longitude: 112.6, Rating: 5.1},
		{Latitude: -7.9, Longitude: 112.6, Rating: 4, ReviewCount: -1},
	}
	for i, r := range bad {
		err := Validate(r)
		assert.True(t, core.IsRecordSkip(err), "case %d: %v", i, err)
	}
}

func TestVectorAndQueryVector(t *testing.T) {
	r := &core.Restaurant{Latitude: -7.9666, Longitude: 112.6326, Rating: 4.5, ReviewCount: 1280}
	Engineer([]*core.Restaurant{r})

	v := Vector(r)
	require.Len(t, v, Dim)
	assert.Equal(t, []float64{-7.9666, 112.6326, 4.5, 1280, r.Popularity, r.WeightedScore}, v)

	q := QueryVector(core.Coordinate{Latitude: -7.9, Longitude: 112.6}, core.DefaultQueryPlaceholders())
	assert.Equal(t, []float64{-7.9, 112.6, 4.0, 100, 1.0, 0.8}, q)

	assert.Len(t, Matrix([]*core.Restaurant{r, r}), 2)
}
