package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rushteam/nearbite/core"
)

// Row 是一行原始数据，key 为归一化字段名。
type Row struct {
	Line   int // 源文件中的行号（表头为第 1 行）
	Values map[string]string
}

// Get 读取字段原始值（已去除首尾空白）
func (r Row) Get(field string) string {
	return strings.TrimSpace(r.Values[field])
}

// Has 报告字段是否有非空值
func (r Row) Has(field string) bool {
	return r.Get(field) != ""
}

// Table 是已归一化表头的原始表。
type Table struct {
	Columns []string // 识别出的归一化字段，按原始列顺序
	Rows    []Row
}

// HasColumn 报告表中是否存在某个归一化字段
func (t *Table) HasColumn(field string) bool {
	for _, c := range t.Columns {
		if c == field {
			return true
		}
	}
	return false
}

// Source 是训练数据来源。读取失败必须返回 DATA_UNAVAILABLE 错误。
type Source interface {
	Name() string
	Load(ctx context.Context) (*Table, error)
}

// CSVSource 从 CSV 文件读取餐厅表。
type CSVSource struct {
	Path   string
	Schema *Schema // 为空时使用 DefaultSchema
}

// NewCSVSource 创建 CSV 数据源
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{Path: path, Schema: DefaultSchema()}
}

func (s *CSVSource) Name() string { return "csv:" + s.Path }

func (s *CSVSource) Load(ctx context.Context) (*Table, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, unavailable(fmt.Sprintf("open %s", s.Path), err)
	}
	defer f.Close()

	t, err := ReadCSV(ctx, f, s.Schema)
	if err != nil {
		return nil, unavailable(fmt.Sprintf("read %s", s.Path), err)
	}
	return t, nil
}

// ReadCSV 解析 CSV 内容；第一行为表头。
func ReadCSV(ctx context.Context, r io.Reader, schema *Schema) (*Table, error) {
	if schema == nil {
		schema = DefaultSchema()
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty file")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	fields, err := schema.Resolve(header)
	if err != nil {
		return nil, err
	}

	t := &Table{}
	for _, f := range fields {
		if f != "" {
			t.Columns = append(t.Columns, f)
		}
	}

	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		row := Row{Line: line, Values: make(map[string]string, len(t.Columns))}
		for i, v := range rec {
			if i < len(fields) && fields[i] != "" {
				row.Values[fields[i]] = v
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// MemorySource 是内存中的数据源，用于测试与程序化构建语料。
type MemorySource struct {
	Table *Table
	Err   error
}

func (s *MemorySource) Name() string { return "memory" }

func (s *MemorySource) Load(_ context.Context) (*Table, error) {
	if s.Err != nil {
		return nil, unavailable("memory source", s.Err)
	}
	if s.Table == nil {
		return nil, unavailable("memory source", errors.New("no table"))
	}
	return s.Table, nil
}

// FirstExisting 返回候选路径中第一个存在的文件；都不存在时返回 DATA_UNAVAILABLE。
func FirstExisting(paths []string) (string, error) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p, nil
		}
	}
	return "", core.WrapDomainError(core.ModuleDataset, core.ErrorCodeDataUnavailable,
		"no data file found", fmt.Errorf("tried %s", strings.Join(paths, ", ")))
}

func unavailable(msg string, err error) error {
	return core.WrapDomainError(core.ModuleDataset, core.ErrorCodeDataUnavailable, msg, err)
}
