package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeLabel(t *testing.T) {
	tests := []struct {
		name     string
		existing Label
		incoming Label
		want     Label
	}{
		{"empty existing", Label{}, Label{Value: "knn", Source: "recall"}, Label{Value: "knn", Source: "recall"}},
		{"empty incoming", Label{Value: "knn", Source: "recall"}, Label{}, Label{Value: "knn", Source: "recall"}},
		{"same source", Label{Value: "a", Source: "filter"}, Label{Value: "b", Source: "filter"}, Label{Value: "a|b", Source: "filter"}},
		{"different source", Label{Value: "a", Source: "recall"}, Label{Value: "b", Source: "rerank"}, Label{Value: "a|b", Source: "recall,rerank"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MergeLabel(tt.existing, tt.incoming))
		})
	}
}

func TestItem(t *testing.T) {
	it := NewItem(3, &Restaurant{Name: "Toko Oen", WeightedScore: 4.4})
	assert.Equal(t, 4.4, it.Score)

	_, ok := it.Feature(FeatureKeyDistanceKM)
	assert.False(t, ok)
	it.Features[FeatureKeyDistanceKM] = 1.5
	d, ok := it.Feature(FeatureKeyDistanceKM)
	assert.True(t, ok)
	assert.Equal(t, 1.5, d)

	it.PutLabel("filtered", Label{Value: "true", Source: "filter.expr"})
	it.PutLabel("filtered", Label{Value: "true", Source: "filter.geo_distance"})
	assert.Equal(t, "filter.expr,filter.geo_distance", it.Labels["filtered"].Source)

	var rctx RecommendContext
	_, ok = rctx.GetLabel("place")
	assert.False(t, ok)
	rctx.PutLabel("place", Label{Value: "Batu", Source: "gazetteer"})
	lbl, ok := rctx.GetLabel("place")
	assert.True(t, ok)
	assert.Equal(t, "Batu", lbl.Value)
}

func TestDomainError(t *testing.T) {
	cause := errors.New("open data.csv: no such file")
	err := fmt.Errorf("train: %w", WrapDomainError(ModuleTrain, ErrorCodeDataUnavailable, "no training data", cause))

	assert.True(t, IsDataUnavailable(err))
	assert.False(t, IsEmptyCorpus(err))
	assert.ErrorIs(t, err, ErrDataUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "train: no training data: open data.csv: no such file", err.Error())

	// Module 不为空时必须一致
	other := NewDomainError(ModuleEngine, ErrorCodeDataUnavailable, "x")
	assert.NotErrorIs(t, err, other)

	assert.True(t, IsStoreNotFound(ErrStoreNotFound))
	assert.False(t, IsStoreNotFound(NewDomainError(ModuleArtifact, ErrorCodeNotFound, "x")))
	assert.Nil(t, GetDomainError(nil))
}

func TestRestaurantDefaults(t *testing.T) {
	r := &Restaurant{Area: "Batu"}
	r.ApplyDescriptiveDefaults()
	assert.Equal(t, DefaultAddress, r.Address)
	assert.Equal(t, "Batu", r.Area)
	assert.Equal(t, DefaultCuisine, r.Cuisine)
	assert.Equal(t, Coordinate{}, r.Coordinate())
}
