package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/nearbite/core"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "")
	s, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, BackendFile, s.Model.Backend)
	assert.Equal(t, core.DefaultKMax, s.Train.KMax)
	assert.Equal(t, core.DefaultRating, s.Train.DefaultRating)
	assert.Equal(t, core.DefaultQueryPlaceholders(), s.Recommend.Placeholders)
	assert.Len(t, s.Data.Paths, 3)
	assert.Equal(t, 10*time.Second, s.Geocode.Timeout)
	assert.Equal(t, "https://ipinfo.io", s.Geocode.IPURL)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nearbite.yaml")
	yml := `
data:
  paths: [restaurants.csv]
model:
  backend: redis
  redis_addr: 127.0.0.1:6380
recommend:
  top_k: 3
  max_distance_km: 5
  placeholders:
    rating: 4.5
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	t.Setenv("NEARBITE_RECOMMEND_TOP_K", "7")
	t.Setenv("NEARBITE_RECOMMEND_PLACEHOLDER_POPULARITY", "2.5")
	t.Setenv("NEARBITE_GEOCODE_ONLINE", "false")

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"restaurants.csv"}, s.Data.Paths)
	assert.Equal(t, BackendRedis, s.Model.Backend)
	assert.Equal(t, "127.0.0.1:6380", s.Model.RedisAddr)
	assert.Equal(t, 7, s.Recommend.TopK)
	assert.Equal(t, 5.0, s.Recommend.MaxDistanceKM)
	assert.Equal(t, 4.5, s.Recommend.Placeholders.Rating)
	assert.Equal(t, 2.5, s.Recommend.Placeholders.Popularity)
	assert.Equal(t, 100.0, s.Recommend.Placeholders.ReviewCount)
	assert.False(t, s.Geocode.Online)
	assert.Equal(t, "debug", s.Logging.Level)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model:\n  backend: s3\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend")
}

func TestEnvTransformFunc(t *testing.T) {
	tests := map[string]string{
		"NEARBITE_RECOMMEND_TOP_K":              "recommend.top_k",
		"NEARBITE_MODEL_REDIS_ADDR":             "model.redis_addr",
		"NEARBITE_RECOMMEND_PLACEHOLDER_RATING": "recommend.placeholders.rating",
		"NEARBITE_GEOCODE_USER_AGENT":           "geocode.user_agent",
		"NEARBITE_CONFIG":                       "",
	}
	for in, want := range tests {
		assert.Equal(t, want, envTransformFunc(in), in)
	}
}
