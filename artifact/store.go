package artifact

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rushteam/nearbite/core"
	"github.com/rushteam/nearbite/metrics"
)

// StoreRepository 把产物保存在 core.Store（Redis / 内存）中：
//
//	<Prefix>:<version>:scaler | index | records | model_info
//	<Prefix>:current → <version>
//
// 先在一个批次中写入新版本的全部对象，再切换 current 指针；
// 读取方总是先读指针，再按版本读取对象，因此不会看到半个产物。
type StoreRepository struct {
	Store  core.Store
	Prefix string
	Now    func() time.Time
}

// NewStoreRepository 创建基于 KV 存储的产物仓库，prefix 为空时使用 "nearbite:model"。
func NewStoreRepository(s core.Store, prefix string) *StoreRepository {
	if prefix == "" {
		prefix = "nearbite:model"
	}
	return &StoreRepository{Store: s, Prefix: strings.TrimSuffix(prefix, ":"), Now: time.Now}
}

func (r *StoreRepository) Name() string { return "store:" + r.Store.Name() }

func (r *StoreRepository) currentKey() string { return r.Prefix + ":current" }

func (r *StoreRepository) objectKey(version, name string) string {
	return r.Prefix + ":" + version + ":" + name
}

func (r *StoreRepository) Save(ctx context.Context, m *Model) (version string, err error) {
	defer func() { metrics.ArtifactOperations.WithLabelValues(r.Name(), "save", metrics.Outcome(err)).Inc() }()

	if err := m.Validate(); err != nil {
		return "", fmt.Errorf("refusing to save invalid model: %w", err)
	}

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	version = NewVersion(now())
	m.Info.Version = version

	objects, err := encode(m)
	if err != nil {
		return "", err
	}
	kvs := make(map[string][]byte, len(objects))
	for name, data := range objects {
		kvs[r.objectKey(version, name)] = data
	}

	previous, _ := r.Store.Get(ctx, r.currentKey())

	if err := r.Store.BatchSet(ctx, kvs); err != nil {
		return "", fmt.Errorf("write version %s: %w", version, err)
	}
	if err := r.Store.Set(ctx, r.currentKey(), []byte(version)); err != nil {
		return "", fmt.Errorf("swap current pointer: %w", err)
	}

	// 旧版本对象在指针切换后删除；正在读取旧版本的进程已持有完整数据
	if old := string(previous); old != "" && old != version {
		for _, name := range append(requiredObjects, ObjectInfo) {
			_ = r.Store.Delete(ctx, r.objectKey(old, name))
		}
	}
	return version, nil
}

func (r *StoreRepository) Load(ctx context.Context) (m *Model, err error) {
	defer func() { metrics.ArtifactOperations.WithLabelValues(r.Name(), "load", metrics.Outcome(err)).Inc() }()

	v, err := r.Store.Get(ctx, r.currentKey())
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, notLoaded("no artifact under "+r.Prefix, err)
		}
		return nil, notLoaded("read current pointer", err)
	}
	version := strings.TrimSpace(string(v))

	names := append([]string{ObjectInfo}, requiredObjects...)
	keys := make([]string, len(names))
	for i, name := range names {
		keys[i] = r.objectKey(version, name)
	}
	vals, err := r.Store.BatchGet(ctx, keys)
	if err != nil {
		return nil, notLoaded("read version "+version, err)
	}

	raw := make(map[string][]byte, len(names))
	for i, name := range names {
		raw[name] = vals[keys[i]]
	}
	return decode(ctx, raw)
}

var _ Repository = (*StoreRepository)(nil)
