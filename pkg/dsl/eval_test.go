package dsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/nearbite/core"
)

func testItem() *core.Item {
	it := core.NewItem(3, &core.Restaurant{
		Name:          "Bakso President",
		Rating:        4.6,
		ReviewCount:   2100,
		Cuisine:       "Javanese",
		Area:          "Klojen",
		WeightedScore: 4.52,
	})
	it.Features[core.FeatureKeyDistanceKM] = 1.8
	it.PutLabel("recall_source", core.Label{Value: "knn", Source: "recall"})
	return it
}

func TestEval_Evaluate(t *testing.T) {
	rctx := &core.RecommendContext{TopK: 5, MaxDistanceKM: 10}
	tests := []struct {
		expr string
		want bool
	}{
		{"", true},
		{"item.rating >= 4.5", true},
		{"item.rating > 4.8", false},
		{`item.cuisine == "Javanese" && item.distance_km < 3.0`, true},
		{`item.name.contains("Bakso")`, true},
		{"item.review_count > 1000", true},
		{`label.recall_source == "knn"`, true},
		{"item.distance_km <= rctx.max_distance_km", true},
		{"rctx.top_k == 5", true},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := NewEval(testItem(), rctx).Evaluate(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	_, err := Compile("item.rating >=")
	assert.Error(t, err)

	_, err = Compile(`"not a bool"`)
	assert.Error(t, err)
}

func TestCompile_Cached(t *testing.T) {
	_, err := Compile("item.rating > 1.0")
	require.NoError(t, err)
	_, ok := programs.Load("item.rating > 1.0")
	assert.True(t, ok)

	_, err = Compile("item.rating >")
	require.Error(t, err)
	_, ok = programs.Load("item.rating >")
	assert.False(t, ok)
}
