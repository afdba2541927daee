package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/nearbite/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once

	// programs 按表达式文本缓存编译结果
	programs sync.Map // map[string]cel.Program
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("item", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("label", cel.MapType(cel.StringType, cel.StringType)),
		cel.Variable("rctx", cel.MapType(cel.StringType, cel.DynType)),
	)
}

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = initCELEnv()
	})
	return celEnv, celEnvErr
}

// Compile 编译表达式并校验其返回布尔值；结果按表达式文本缓存。
//
// 可用变量：
//   - item.name / item.cuisine / item.area / item.address（string）
//   - item.rating / item.weighted_score / item.popularity / item.distance_km（double）
//   - item.review_count（int）
//   - label.<key>（string，取 Label.Value）
//   - rctx.top_k / rctx.max_distance_km / rctx.latitude / rctx.longitude
//
// 示例：
//   - `item.rating >= 4.5`
//   - `item.cuisine == "Javanese" && item.distance_km < 3.0`
//   - `item.name.contains("Bakso")`
func Compile(expr string) (cel.Program, error) {
	if v, ok := programs.Load(expr); ok {
		return v.(cel.Program), nil
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	if ast.OutputType() != cel.BoolType && ast.OutputType() != cel.DynType {
		return nil, fmt.Errorf("expression must return bool, got %s", ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	actual, _ := programs.LoadOrStore(expr, prg)
	return actual.(cel.Program), nil
}

// Eval 是针对单个候选的 DSL 解释器，使用 CEL (Common Expression Language) 实现。
type Eval struct {
	item *core.Item
	rctx *core.RecommendContext
}

// NewEval 创建一个新的 DSL 解释器。
func NewEval(item *core.Item, rctx *core.RecommendContext) *Eval {
	return &Eval{item: item, rctx: rctx}
}

// Evaluate 编译（命中缓存时跳过）并执行表达式，返回布尔结果。空表达式恒为 true。
func (e *Eval) Evaluate(expr string) (bool, error) {
	if expr == "" {
		return true, nil
	}
	prg, err := Compile(expr)
	if err != nil {
		return false, err
	}
	out, _, err := prg.Eval(e.buildInput())
	if err != nil {
		return false, fmt.Errorf("eval error: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func (e *Eval) buildInput() map[string]any {
	item := map[string]any{
		"row":   int64(e.item.Row),
		"score": e.item.Score,
	}
	if r := e.item.Restaurant; r != nil {
		item["name"] = r.Name
		item["address"] = r.Address
		item["area"] = r.Area
		item["cuisine"] = r.Cuisine
		item["rating"] = r.Rating
		item["review_count"] = r.ReviewCount
		item["popularity"] = r.Popularity
		item["weighted_score"] = r.WeightedScore
	}
	for k, v := range e.item.Features {
		item[k] = v
	}

	labels := make(map[string]string, len(e.item.Labels))
	for k, v := range e.item.Labels {
		labels[k] = v.Value
	}

	rctx := map[string]any{}
	if e.rctx != nil {
		rctx["top_k"] = int64(e.rctx.TopK)
		rctx["max_distance_km"] = e.rctx.MaxDistanceKM
		rctx["latitude"] = e.rctx.Location.Latitude
		rctx["longitude"] = e.rctx.Location.Longitude
		for k, v := range e.rctx.Params {
			rctx[k] = v
		}
	}

	return map[string]any{
		"item":  item,
		"label": labels,
		"rctx":  rctx,
	}
}
