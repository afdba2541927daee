// Package train 实现离线训练流水线：Load → Clean → Engineer → Fit → Persist。
//
// 任一阶段失败都会终止训练，且不会写出任何产物；已有的有效产物保持不变。
package train

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/nearbite/artifact"
	"github.com/rushteam/nearbite/core"
	"github.com/rushteam/nearbite/dataset"
	"github.com/rushteam/nearbite/feature"
	"github.com/rushteam/nearbite/index"
	"github.com/rushteam/nearbite/logging"
	"github.com/rushteam/nearbite/metrics"
)

// Stage 是训练阶段
type Stage string

const (
	StageLoad     Stage = "load"
	StageClean    Stage = "clean"
	StageEngineer Stage = "engineer"
	StageFit      Stage = "fit"
	StagePersist  Stage = "persist"
	StageDone     Stage = "done"
)

// ModelType 写入 model_info 的模型类型
const ModelType = "K-Nearest Neighbors"

// Trainer 驱动一次训练。
type Trainer struct {
	// Source 为 nil 时从 Paths 中取第一个存在的 CSV
	Source dataset.Source
	Paths  []string

	Repository artifact.Repository

	// Rules 为零值时使用 dataset.DefaultRules
	Rules dataset.Rules

	// KMax 是索引的近邻预算，会截断到语料规模；<= 0 时使用默认值 20
	KMax int

	Now func() time.Time
}

// Report 是训练结果摘要。
type Report struct {
	Version       string
	DataSource    string
	Provenance    string
	Rows          int
	Samples       int
	Skips         []dataset.Skip
	MaxPopularity float64
	Neighbors     int
	Duration      time.Duration

	// Model 是刚写出的产物，可直接交给引擎使用
	Model *artifact.Model
}

// StageError 标记失败的训练阶段，底层错误可通过 errors.As / core.Is* 判断。
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("train %s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func (t *Trainer) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

// Run 执行完整的训练流水线。
func (t *Trainer) Run(ctx context.Context) (rep *Report, err error) {
	log := logging.Component("train")
	start := t.now()
	defer func() {
		metrics.TrainingRuns.WithLabelValues(outcome(err)).Inc()
		metrics.TrainingDuration.Observe(time.Since(start).Seconds())
	}()

	if t.Repository == nil {
		return nil, &StageError{Stage: StagePersist, Err: fmt.Errorf("no artifact repository configured")}
	}

	// Load
	src, err := t.source()
	if err != nil {
		return nil, &StageError{Stage: StageLoad, Err: err}
	}
	table, err := src.Load(ctx)
	if err != nil {
		return nil, &StageError{Stage: StageLoad, Err: err}
	}
	rep = &Report{DataSource: src.Name(), Rows: len(table.Rows)}
	log.Info().Str("source", rep.DataSource).Int("rows", rep.Rows).Msg("training data loaded")

	// Clean
	rules := t.Rules
	if rules.ByProvenance == nil {
		rules = dataset.DefaultRules()
	}
	cleaned, err := dataset.Clean(table, rules)
	if cleaned != nil {
		rep.Provenance = cleaned.Provenance
		rep.Skips = cleaned.Skips
		logSkips(&log, cleaned)
	}
	if err != nil {
		return rep, &StageError{Stage: StageClean, Err: err}
	}
	records := cleaned.Records

	// Engineer
	rep.MaxPopularity = feature.Engineer(records)

	// Fit
	model, err := t.fit(records)
	if err != nil {
		return rep, &StageError{Stage: StageFit, Err: err}
	}
	model.Info.DataSource = rep.Provenance
	model.Info.MaxPopularity = rep.MaxPopularity
	model.Info.CreatedAt = t.now().UTC()
	rep.Samples = len(records)
	rep.Neighbors = model.Index.KMax()

	// Persist
	if err := ctx.Err(); err != nil {
		return rep, &StageError{Stage: StagePersist, Err: err}
	}
	version, err := t.Repository.Save(ctx, model)
	if err != nil {
		return rep, &StageError{Stage: StagePersist, Err: err}
	}
	rep.Version = version
	rep.Model = model
	rep.Duration = t.now().Sub(start)

	metrics.TrainingSamples.Set(float64(rep.Samples))
	log.Info().
		Str("version", version).
		Str("repository", t.Repository.Name()).
		Str("provenance", rep.Provenance).
		Int("samples", rep.Samples).
		Int("skipped", len(rep.Skips)).
		Int("n_neighbors", rep.Neighbors).
		Float64("max_popularity", rep.MaxPopularity).
		Msg("training completed")
	return rep, nil
}

func (t *Trainer) source() (dataset.Source, error) {
	if t.Source != nil {
		return t.Source, nil
	}
	path, err := dataset.FirstExisting(t.Paths)
	if err != nil {
		return nil, err
	}
	return dataset.NewCSVSource(path), nil
}

// fit 拟合 Scaler 与候选索引。
func (t *Trainer) fit(records []*core.Restaurant) (*artifact.Model, error) {
	matrix := feature.Matrix(records)

	scaler := feature.NewStandardScaler(feature.Order...)
	if err := scaler.Fit(matrix); err != nil {
		return nil, fmt.Errorf("fit scaler: %w", err)
	}
	scaled, err := scaler.TransformMatrix(matrix)
	if err != nil {
		return nil, fmt.Errorf("scale matrix: %w", err)
	}

	kMax := t.KMax
	if kMax <= 0 {
		kMax = core.DefaultKMax
	}
	idx := index.NewFlat(kMax)
	if err := idx.Fit(scaled); err != nil {
		return nil, fmt.Errorf("fit index: %w", err)
	}

	return &artifact.Model{
		Info: artifact.Info{
			ModelType:      ModelType,
			TrainedSamples: len(records),
			Neighbors:      idx.KMax(),
			Metric:         idx.Metric(),
			Features:       append([]string(nil), feature.Order...),
		},
		Scaler:  scaler,
		Index:   idx,
		Records: records,
	}, nil
}

func logSkips(log *zerolog.Logger, res *dataset.CleanResult) {
	for _, s := range res.Skips {
		metrics.RecordsSkipped.WithLabelValues(res.Provenance).Inc()
		log.Warn().
			Int("line", s.Line).
			Str("name", s.Name).
			Err(s.Reason).
			Msg("record skipped")
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case core.IsDataUnavailable(err):
		return "data_unavailable"
	case core.IsEmptyCorpus(err):
		return "empty_corpus"
	default:
		return "error"
	}
}
