package dataset

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/nearbite/core"
)

func readCSV(t *testing.T, content string) *Table {
	t.Helper()
	tbl, err := ReadCSV(context.Background(), strings.NewReader(content), nil)
	require.NoError(t, err)
	return tbl
}

func TestSchema_Resolve(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		want   []string
	}{
		{
			name:   "canonical",
			header: []string{"name", "rating", "review_count", "latitude", "longitude"},
			want:   []string{FieldName, FieldRating, FieldReviewCount, FieldLatitude, FieldLongitude},
		},
		{
			name:   "excel aliases",
			header: []string{"\ufeffNama Restoran", "Alamat", "Rating", "Jumlah Ulasan", "Lat", "Lng", "Kategori"},
			want:   []string{FieldName, FieldAddress, FieldRating, FieldReviewCount, FieldLatitude, FieldLongitude, FieldCuisine},
		},
		{
			name:   "unknown columns ignored",
			header: []string{"id", "name", "latitude", "longitude", "phone"},
			want:   []string{"", FieldName, FieldLatitude, FieldLongitude, ""},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DefaultSchema().Resolve(tt.header)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := DefaultSchema().Resolve([]string{"name", "rating"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "latitude")
}

func TestDetectProvenance(t *testing.T) {
	assert.Equal(t, ProvenanceStandard, DetectProvenance(readCSV(t, "name,latitude,longitude\nA,1,2\n")))
	assert.Equal(t, ProvenanceExcelImport, DetectProvenance(readCSV(t, "name,latitude,longitude,source\nA,1,2,excel_import\nB,1,2,osm\n")))
	assert.Equal(t, ProvenanceUnknown, DetectProvenance(readCSV(t, "name,latitude,longitude,source\nA,1,2,\n")))
}

func TestClean_ExcelImportFillsDefaults(t *testing.T) {
	tbl := readCSV(t, `name,rating,review_count,latitude,longitude,source
Warung A,,,-7.96,112.63,excel_import
Warung B,4.5,,-7.97,112.64,excel_import
`)
	res, err := Clean(tbl, DefaultRules())
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	assert.Empty(t, res.Skips)
	assert.Equal(t, ProvenanceExcelImport, res.Provenance)

	a := res.Records[0]
	assert.Equal(t, core.DefaultRating, a.Rating)
	assert.Equal(t, int64(core.DefaultReviewCount), a.ReviewCount)
	assert.Equal(t, core.DefaultAddress, a.Address)
	assert.Equal(t, core.DefaultArea, a.Area)
	assert.Equal(t, core.DefaultCuisine, a.Cuisine)

	b := res.Records[1]
	assert.Equal(t, 4.5, b.Rating)
	assert.Equal(t, int64(core.DefaultReviewCount), b.ReviewCount)
}

func TestClean_OtherProvenanceDropsMissing(t *testing.T) {
	tbl := readCSV(t, `name,rating,review_count,latitude,longitude,source
Warung A,,,-7.96,112.63,osm
Warung B,4.5,"1,200",-7.97,112.64,osm
,4.0,10,-7.97,112.64,osm
Warung D,4.0,10,,112.64,osm
Warung E,7.5,10,-7.97,112.64,osm
`)
	res, err := Clean(tbl, DefaultRules())
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "Warung B", res.Records[0].Name)
	assert.Equal(t, int64(1200), res.Records[0].ReviewCount)

	require.Len(t, res.Skips, 4)
	for _, s := range res.Skips {
		assert.True(t, core.IsRecordSkip(s.Reason), s.Reason)
	}
	assert.Equal(t, 2, res.Skips[0].Line)
	assert.Equal(t, "Warung A", res.Skips[0].Name)
}

func TestParseFloat(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"4.5", 4.5, true},
		{"4,5", 4.5, true},
		{"4,75", 4.75, true},
		{"1,200", 1200, true},
		{"1,234,567", 1234567, true},
		{" 12 ", 12, true},
		{"", 0, false},
		{"NaN", 0, false},
		{"n/a", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseFloat(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.InDelta(t, tt.want, got, 1e-9, tt.in)
		}
	}
}

func TestClean_DecimalCommaRating(t *testing.T) {
	tbl := readCSV(t, `name,rating,review_count,latitude,longitude,source
Warung A,"4,5","1,280",-7.96,112.63,excel_import
`)
	res, err := Clean(tbl, DefaultRules())
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, 4.5, res.Records[0].Rating)
	assert.Equal(t, int64(1280), res.Records[0].ReviewCount)
}

func TestClean_EmptyCorpus(t *testing.T) {
	tbl := readCSV(t, "name,rating,review_count,latitude,longitude\nWarung A,,,-7.96,112.63\n")
	res, err := Clean(tbl, DefaultRules())
	require.Error(t, err)
	assert.True(t, core.IsEmptyCorpus(err))
	assert.ErrorIs(t, err, core.ErrEmptyCorpus)
	require.NotNil(t, res)
	assert.Len(t, res.Skips, 1)
}

func TestClean_NormalizesCuisine(t *testing.T) {
	tbl := readCSV(t, "name,latitude,longitude,rating,review_count,categories\nA,-7.9,112.6,4,10,\" Bakso ,, Indonesian\"\n")
	res, err := Clean(tbl, DefaultRules())
	require.NoError(t, err)
	assert.Equal(t, "Bakso, Indonesian", res.Records[0].Cuisine)
}

func TestCSVSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "restaurants.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,latitude,longitude\nA,1,2\n"), 0o644))

	tbl, err := NewCSVSource(path).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, tbl.Rows, 1)

	_, err = NewCSVSource(filepath.Join(dir, "missing.csv")).Load(context.Background())
	assert.True(t, core.IsDataUnavailable(err))

	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("foo,bar\n1,2\n"), 0o644))
	_, err = NewCSVSource(bad).Load(context.Background())
	assert.True(t, core.IsDataUnavailable(err))
}

func TestFirstExisting(t *testing.T) {
	dir := t.TempDir()
	second := filepath.Join(dir, "google.csv")
	require.NoError(t, os.WriteFile(second, []byte("x"), 0o644))

	got, err := FirstExisting([]string{filepath.Join(dir, "real.csv"), second, filepath.Join(dir, "osm.csv")})
	require.NoError(t, err)
	assert.Equal(t, second, got)

	_, err = FirstExisting([]string{filepath.Join(dir, "none.csv")})
	assert.True(t, core.IsDataUnavailable(err))
}
