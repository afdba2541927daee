package conv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigGetters(t *testing.T) {
	cfg := map[string]any{
		"name":   "nearby",
		"k":      20,
		"k_f":    20.0,
		"max_km": 25,
		"ratio":  "0.5",
		"names":  []any{"Warung A", 7},
	}

	assert.Equal(t, "nearby", ConfigGet(cfg, "name", ""))
	assert.Equal(t, "fallback", ConfigGet(cfg, "missing", "fallback"))
	assert.Equal(t, "", ConfigGet(cfg, "k", ""))

	assert.Equal(t, int64(20), ConfigGetInt64(cfg, "k", 0))
	assert.Equal(t, int64(20), ConfigGetInt64(cfg, "k_f", 0))
	assert.Equal(t, int64(3), ConfigGetInt64(cfg, "name", 3))

	assert.Equal(t, 25.0, ConfigGetFloat64(cfg, "max_km", 0))
	assert.Equal(t, 0.5, ConfigGetFloat64(cfg, "ratio", 0))
	assert.Equal(t, 1.5, ConfigGetFloat64(nil, "max_km", 1.5))

	assert.Equal(t, []string{"Warung A", "7"}, SliceAnyToString(cfg["names"]))
	assert.Nil(t, SliceAnyToString(cfg["name"]))
}
