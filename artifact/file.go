package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/nearbite/metrics"
)

// CurrentFile 是指向当前版本目录的指针文件名
const CurrentFile = "CURRENT"

// FileRepository 把产物保存在本地目录：
//
//	<Dir>/CURRENT                   当前版本号
//	<Dir>/<version>/scaler.json
//	<Dir>/<version>/index.json
//	<Dir>/<version>/records.json
//	<Dir>/<version>/model_info.json
//
// 新版本先完整写入临时目录再 rename 为版本目录，最后通过 rename 原子替换 CURRENT。
// 任一步失败都不会影响 CURRENT 指向的旧版本。
type FileRepository struct {
	Dir string
	// Keep 是保留的历史版本数（包含当前版本），<= 0 时为 2
	Keep int
	// Now 用于生成版本号（测试可替换）
	Now func() time.Time
}

// NewFileRepository 创建本地目录产物仓库
func NewFileRepository(dir string) *FileRepository {
	return &FileRepository{Dir: dir, Keep: 2, Now: time.Now}
}

func (r *FileRepository) Name() string { return "file" }

func (r *FileRepository) Save(ctx context.Context, m *Model) (version string, err error) {
	defer func() { metrics.ArtifactOperations.WithLabelValues(r.Name(), "save", metrics.Outcome(err)).Inc() }()

	if err := m.Validate(); err != nil {
		return "", fmt.Errorf("refusing to save invalid model: %w", err)
	}
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create artifact dir: %w", err)
	}

	version = NewVersion(r.now())
	m.Info.Version = version
	objects, err := encode(m)
	if err != nil {
		return "", err
	}

	tmp, err := os.MkdirTemp(r.Dir, ".tmp-")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.RemoveAll(tmp)
		}
	}()

	for name, data := range objects {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := writeFileSync(filepath.Join(tmp, name+".json"), data); err != nil {
			return "", fmt.Errorf("write %s: %w", name, err)
		}
	}

	if err := os.Rename(tmp, filepath.Join(r.Dir, version)); err != nil {
		return "", fmt.Errorf("publish version dir: %w", err)
	}
	if err := r.swapCurrent(version); err != nil {
		return "", err
	}
	r.prune(version)
	return version, nil
}

// swapCurrent 通过 临时文件 + rename 原子更新 CURRENT。
func (r *FileRepository) swapCurrent(version string) error {
	f, err := os.CreateTemp(r.Dir, ".current-")
	if err != nil {
		return fmt.Errorf("create current pointer: %w", err)
	}
	name := f.Name()
	if _, err := f.WriteString(version + "\n"); err != nil {
		f.Close()
		os.Remove(name)
		return fmt.Errorf("write current pointer: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(name)
		return fmt.Errorf("sync current pointer: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Rename(name, filepath.Join(r.Dir, CurrentFile)); err != nil {
		os.Remove(name)
		return fmt.Errorf("swap current pointer: %w", err)
	}
	return nil
}

// prune 删除超出保留数量的旧版本目录与残留的临时目录；失败只影响磁盘占用。
// 名称不是版本号的目录不属于产物，一律不动。
func (r *FileRepository) prune(current string) {
	keep := r.Keep
	if keep <= 0 {
		keep = 2
	}
	entries, err := os.ReadDir(r.Dir)
	if err != nil {
		return
	}
	var versions []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if strings.HasPrefix(e.Name(), ".tmp-") {
			_ = os.RemoveAll(filepath.Join(r.Dir, e.Name()))
			continue
		}
		if e.Name() != current && IsVersion(e.Name()) {
			versions = append(versions, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(versions)))
	for i, v := range versions {
		if i >= keep-1 {
			_ = os.RemoveAll(filepath.Join(r.Dir, v))
		}
	}
}

// CurrentVersion 返回 CURRENT 指向的版本号
func (r *FileRepository) CurrentVersion() (string, error) {
	b, err := os.ReadFile(filepath.Join(r.Dir, CurrentFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", notLoaded("no artifact in "+r.Dir, err)
		}
		return "", notLoaded("read current pointer", err)
	}
	v := strings.TrimSpace(string(b))
	if v == "" || strings.ContainsAny(v, `/\`) {
		return "", notLoaded("invalid current pointer", nil)
	}
	return v, nil
}

func (r *FileRepository) Load(ctx context.Context) (m *Model, err error) {
	defer func() { metrics.ArtifactOperations.WithLabelValues(r.Name(), "load", metrics.Outcome(err)).Inc() }()

	version, err := r.CurrentVersion()
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(r.Dir, version)

	names := append([]string{ObjectInfo}, requiredObjects...)
	contents := make([][]byte, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			b, err := os.ReadFile(filepath.Join(dir, name+".json"))
			if err != nil {
				if name == ObjectInfo && errors.Is(err, fs.ErrNotExist) {
					return nil
				}
				return notLoaded("read "+name, err)
			}
			contents[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	raw := make(map[string][]byte, len(names))
	for i, name := range names {
		raw[name] = contents[i]
	}
	return decode(ctx, raw)
}

func (r *FileRepository) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func writeFileSync(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

var _ Repository = (*FileRepository)(nil)
