package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/nearbite/core"
	"github.com/rushteam/nearbite/engine"
)

const testCSV = `name,rating,review_count,categories,latitude,longitude,area
Bakso President,4.5,1280,"Bakso, Indonesian",-7.9666,112.6326,Kota Malang
Cafe Toko Oen,4.4,1100,"Dutch, Cafe",-7.9670,112.6310,Kota Malang
Sate Ayam Pak Dullah,4.6,980,"Sate, Indonesian",-7.8924,112.6655,Singosari
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("NEARBITE_CONFIG", "")
	t.Setenv("NEARBITE_MODEL_DIR", filepath.Join(dir, "models"))
	t.Setenv("NEARBITE_GEOCODE_ONLINE", "false")
	t.Setenv("NEARBITE_LOGGING_LEVEL", "disabled")
	path := filepath.Join(dir, "restaurants.csv")
	require.NoError(t, os.WriteFile(path, []byte(testCSV), 0o644))
	return path
}

func TestCLI_TrainRecommendInfo(t *testing.T) {
	data := setup(t)

	out, err := run(t, "train", "--data", data)
	require.NoError(t, err)
	assert.Contains(t, out, "samples:     3")

	out, err = run(t, "recommend", "--lat", "-7.9666", "--lon", "112.6326", "--max-km", "1", "--json")
	require.NoError(t, err)
	var recs []engine.Recommendation
	require.NoError(t, json.Unmarshal([]byte(out), &recs))
	require.Len(t, recs, 2)
	for _, r := range recs {
		assert.LessOrEqual(t, r.DistanceKM, 1.0)
	}

	out, err = run(t, "recommend", "--place", "Singosari", "--max-km", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Sate Ayam Pak Dullah")

	_, err = run(t, "recommend", "--place", "Atlantis")
	assert.True(t, core.IsGeocodeNotFound(err))

	_, err = run(t, "recommend")
	assert.Error(t, err)

	out, err = run(t, "info")
	require.NoError(t, err)
	assert.Contains(t, out, `"n_neighbors": 3`)
}

func TestCLI_RecommendWithoutModel(t *testing.T) {
	setup(t)
	_, err := run(t, "recommend", "--lat", "-7.9666", "--lon", "112.6326")
	assert.True(t, core.IsModelNotLoaded(err))
}

func TestCLI_Places(t *testing.T) {
	setup(t)
	out, err := run(t, "places")
	require.NoError(t, err)
	assert.Contains(t, out, "Kota Malang")
	assert.Contains(t, out, "-7.9666, 112.6326")
	assert.Contains(t, out, "online lookup")
}

func TestCLI_RecommendHere(t *testing.T) {
	data := setup(t)
	_, err := run(t, "train", "--data", data)
	require.NoError(t, err)

	// 离线时不允许按 IP 定位
	_, err = run(t, "recommend", "--here")
	assert.ErrorContains(t, err, "--here needs geocode.online")

	_, err = run(t, "recommend", "--here", "--place", "Batu")
	assert.ErrorContains(t, err, "exactly one of")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"city":"Malang","region":"East Java","loc":"-7.9668,112.6320"}`))
	}))
	defer srv.Close()
	t.Setenv("NEARBITE_GEOCODE_ONLINE", "true")
	t.Setenv("NEARBITE_GEOCODE_IP_URL", srv.URL)

	out, err := run(t, "recommend", "--here", "--max-km", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "current location Malang, East Java -> (-7.9668, 112.6320) via ipinfo")
	assert.Contains(t, out, "Bakso President")
	assert.NotContains(t, out, "Sate Ayam Pak Dullah")
}
