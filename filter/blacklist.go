package filter

import (
	"context"
	"strings"

	"github.com/goccy/go-json"

	"github.com/rushteam/nearbite/core"
)

// BlacklistFilter 是黑名单过滤器，按餐厅名（忽略大小写）过滤。
type BlacklistFilter struct {
	// Names 是内存中的黑名单
	Names []string

	// Store 用于读取黑名单（可选），value 为 JSON 字符串数组
	Store core.Store

	// Key 是 Store 中的黑名单 key（可选）
	Key string
}

// NewBlacklistFilter 创建一个黑名单过滤器。
func NewBlacklistFilter(names []string, store core.Store, key string) *BlacklistFilter {
	return &BlacklistFilter{
		Names: names,
		Store: store,
		Key:   key,
	}
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

func (f *BlacklistFilter) ShouldFilter(
	ctx context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil || item.Restaurant == nil {
		return true, nil
	}
	name := item.Restaurant.Name

	for _, n := range f.Names {
		if strings.EqualFold(n, name) {
			return true, nil
		}
	}

	if f.Store != nil && f.Key != "" {
		names, err := f.load(ctx)
		if err != nil {
			return false, err
		}
		for _, n := range names {
			if strings.EqualFold(n, name) {
				return true, nil
			}
		}
	}

	return false, nil
}

func (f *BlacklistFilter) load(ctx context.Context) ([]string, error) {
	data, err := f.Store.Get(ctx, f.Key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, err
	}
	return names, nil
}
