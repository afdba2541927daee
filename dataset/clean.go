package dataset

import (
	"math"
	"strings"

	"github.com/rushteam/nearbite/core"
	"github.com/rushteam/nearbite/feature"
)

// 数据来源标记。
const (
	ProvenanceExcelImport = "excel_import"
	ProvenanceStandard    = "standard" // 没有 source 列
	ProvenanceUnknown     = "unknown"  // 有 source 列但首行为空
)

// DetectProvenance 以首行的 source 值作为整表的来源。
func DetectProvenance(t *Table) string {
	if !t.HasColumn(FieldSource) {
		return ProvenanceStandard
	}
	if len(t.Rows) == 0 || !t.Rows[0].Has(FieldSource) {
		return ProvenanceUnknown
	}
	return t.Rows[0].Get(FieldSource)
}

// MissingPolicy 决定 rating / review_count 缺失时的处理方式。
type MissingPolicy struct {
	// Fill 为 true 时用默认值填充；否则整行丢弃
	Fill        bool
	Rating      float64
	ReviewCount int64
}

// Rules 是按来源的缺省值规则；未登记的来源使用 Default。
type Rules struct {
	ByProvenance map[string]MissingPolicy
	Default      MissingPolicy
}

// DefaultRules 只为 excel_import 填充缺失值（3.8 / 100），其他来源丢弃缺失行。
func DefaultRules() Rules {
	return NewRules(core.DefaultRating, core.DefaultReviewCount)
}

// NewRules 使用给定的填充值构建默认规则集。
func NewRules(rating float64, reviewCount int64) Rules {
	return Rules{
		ByProvenance: map[string]MissingPolicy{
			ProvenanceExcelImport: {Fill: true, Rating: rating, ReviewCount: reviewCount},
		},
	}
}

// Policy 返回某个来源的缺失值策略
func (r Rules) Policy(provenance string) MissingPolicy {
	if p, ok := r.ByProvenance[provenance]; ok {
		return p
	}
	return r.Default
}

// Skip 是一条被丢弃的记录及原因。
type Skip struct {
	Line   int
	Name   string
	Reason error
}

// CleanResult 是清洗结果
type CleanResult struct {
	Provenance string
	Records    []*core.Restaurant
	Skips      []Skip
}

// Clean 按来源规则把原始行转换为餐厅记录。
// 单行失败记为 Skip（RECORD_VALIDATION_SKIP），不会中断；没有幸存记录时返回 EMPTY_CORPUS。
func Clean(t *Table, rules Rules) (*CleanResult, error) {
	res := &CleanResult{Provenance: DetectProvenance(t)}
	policy := rules.Policy(res.Provenance)

	for _, row := range t.Rows {
		r, err := buildRecord(row, policy)
		if err == nil {
			err = feature.Validate(r)
		}
		if err != nil {
			res.Skips = append(res.Skips, Skip{Line: row.Line, Name: row.Get(FieldName), Reason: err})
			continue
		}
		res.Records = append(res.Records, r)
	}

	if len(res.Records) == 0 {
		return res, core.NewDomainError(core.ModuleDataset, core.ErrorCodeEmptyCorpus,
			"no valid records after cleaning")
	}
	return res, nil
}

func buildRecord(row Row, policy MissingPolicy) (*core.Restaurant, error) {
	name := row.Get(FieldName)
	if name == "" {
		return nil, skip("missing name")
	}
	lat, okLat := parseFloat(row.Get(FieldLatitude))
	lon, okLon := parseFloat(row.Get(FieldLongitude))
	if !okLat || !okLon {
		return nil, skip("missing latitude/longitude")
	}

	rating, okRating := parseFloat(row.Get(FieldRating))
	reviews, okReviews := parseFloat(row.Get(FieldReviewCount))
	if !okRating || !okReviews {
		if !policy.Fill {
			return nil, skip("missing rating/review_count")
		}
		if !okRating {
			rating = policy.Rating
		}
		if !okReviews {
			reviews = float64(policy.ReviewCount)
		}
	}

	r := &core.Restaurant{
		Name:        name,
		Latitude:    lat,
		Longitude:   lon,
		Rating:      rating,
		ReviewCount: int64(math.Round(reviews)),
		Address:     row.Get(FieldAddress),
		Area:        row.Get(FieldArea),
		Cuisine:     normalizeCuisine(row.Get(FieldCuisine)),
		Source:      row.Get(FieldSource),
	}
	r.ApplyDescriptiveDefaults()
	return r, nil
}

// normalizeCuisine 整理类别串中的空白与空项（" Bakso ,, Indonesian" → "Bakso, Indonesian"）。
func normalizeCuisine(s string) string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}

func skip(reason string) error {
	return core.NewDomainError(core.ModuleDataset, core.ErrorCodeRecordSkip, reason)
}
