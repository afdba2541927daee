// Package dataset 负责训练输入：表头归一化、字段语义类型、按来源的缺省值规则与清洗。
package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// 归一化后的字段名。
const (
	FieldName        = "name"
	FieldLatitude    = "latitude"
	FieldLongitude   = "longitude"
	FieldRating      = "rating"
	FieldReviewCount = "review_count"
	FieldAddress     = "address"
	FieldArea        = "area"
	FieldCuisine     = "cuisine"
	FieldSource      = "source"
)

// Kind 是字段的语义类型
type Kind int

const (
	KindText Kind = iota
	KindFloat
	KindCount
)

// FieldSpec 描述一个归一化字段。
type FieldSpec struct {
	Name     string
	Kind     Kind
	Required bool
	// Aliases 是原始表头的别名（小写，包含匹配），按声明顺序优先
	Aliases []string
}

// Schema 是原始表头到归一化字段的映射。
type Schema struct {
	Fields []FieldSpec
}

// DefaultSchema 返回餐厅表的默认映射；别名覆盖常见的印尼语/英语表头。
// 匹配顺序与声明顺序一致，review_count 必须先于 name 之外的宽泛别名。
func DefaultSchema() *Schema {
	return &Schema{Fields: []FieldSpec{
		{Name: FieldName, Kind: KindText, Required: true, Aliases: []string{"name", "nama"}},
		{Name: FieldRating, Kind: KindFloat, Aliases: []string{"rating"}},
		{Name: FieldReviewCount, Kind: KindCount, Aliases: []string{"review", "ulasan"}},
		{Name: FieldAddress, Kind: KindText, Aliases: []string{"address", "alamat"}},
		{Name: FieldLatitude, Kind: KindFloat, Required: true, Aliases: []string{"latitude", "lat"}},
		{Name: FieldLongitude, Kind: KindFloat, Required: true, Aliases: []string{"longitude", "lon", "lng"}},
		{Name: FieldCuisine, Kind: KindText, Aliases: []string{"cuisine", "categories", "category", "kategori", "jenis"}},
		{Name: FieldArea, Kind: KindText, Aliases: []string{"area", "wilayah"}},
		{Name: FieldSource, Kind: KindText, Aliases: []string{"source"}},
	}}
}

// Field 按归一化名查找字段定义
func (s *Schema) Field(name string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Resolve 将原始表头映射为归一化字段名；无法识别的列映射为空串（忽略）。
// 精确匹配优先于别名包含匹配；同一字段只绑定第一列。
func (s *Schema) Resolve(header []string) ([]string, error) {
	out := make([]string, len(header))
	bound := make(map[string]bool, len(s.Fields))

	norm := make([]string, len(header))
	for i, h := range header {
		norm[i] = normalizeHeader(h)
	}

	// 第一轮：精确匹配
	for i, h := range norm {
		for _, f := range s.Fields {
			if h == f.Name && !bound[f.Name] {
				out[i] = f.Name
				bound[f.Name] = true
				break
			}
		}
	}
	// 第二轮：别名包含匹配
	for i, h := range norm {
		if out[i] != "" || h == "" {
			continue
		}
		for _, f := range s.Fields {
			if bound[f.Name] || !matchesAlias(h, f.Aliases) {
				continue
			}
			out[i] = f.Name
			bound[f.Name] = true
			break
		}
	}

	var missing []string
	for _, f := range s.Fields {
		if f.Required && !bound[f.Name] {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return out, nil
}

func normalizeHeader(h string) string {
	h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	h = strings.ToLower(h)
	return strings.NewReplacer(" ", "_", "-", "_").Replace(h)
}

func matchesAlias(h string, aliases []string) bool {
	for _, a := range aliases {
		if strings.Contains(h, a) {
			return true
		}
	}
	return false
}

// parseFloat 解析数值单元格；空白或非数字视为缺失（NaN, false）。
// 唯一的逗号后跟 1~2 位数字时按小数点处理（"4,5" → 4.5），其余逗号视为千分位（"1,200" → 1200）。
func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return math.NaN(), false
	}
	if isDecimalComma(s) {
		s = strings.Replace(s, ",", ".", 1)
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return math.NaN(), false
	}
	return v, true
}

func isDecimalComma(s string) bool {
	if strings.Count(s, ",") != 1 || strings.Contains(s, ".") {
		return false
	}
	frac := s[strings.IndexByte(s, ',')+1:]
	if len(frac) == 0 || len(frac) > 2 {
		return false
	}
	for _, c := range frac {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
