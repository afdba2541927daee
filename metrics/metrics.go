// Package metrics 定义训练与推荐链路的 Prometheus 指标。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 训练
	TrainingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nearbite_training_runs_total",
			Help: "Total number of training runs by outcome",
		},
		[]string{"outcome"}, // "success", "data_unavailable", "empty_corpus", "error"
	)

	TrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nearbite_training_duration_seconds",
			Help:    "Duration of training runs in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	TrainingSamples = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nearbite_training_samples",
			Help: "Number of records in the last successfully trained corpus",
		},
	)

	RecordsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nearbite_records_skipped_total",
			Help: "Records dropped during cleaning, by provenance",
		},
		[]string{"provenance"},
	)

	// 推荐
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nearbite_recommend_requests_total",
			Help: "Total number of recommendation requests by outcome",
		},
		[]string{"outcome"}, // "ok", "empty", "model_not_loaded", "error"
	)

	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nearbite_recommend_duration_seconds",
			Help:    "Latency of recommendation requests in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
	)

	RecommendResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nearbite_recommend_results",
			Help:    "Number of restaurants returned per request",
			Buckets: []float64{0, 1, 3, 5, 10, 20, 50},
		},
	)

	CandidatesFiltered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nearbite_candidates_filtered_total",
			Help: "Candidates dropped by pipeline filters",
		},
		[]string{"filter"},
	)

	// 地理编码
	GeocodeLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nearbite_geocode_lookups_total",
			Help: "Geocode lookups by geocoder and outcome",
		},
		[]string{"geocoder", "outcome"}, // outcome: "hit", "not_found", "error"
	)

	// 模型产物
	ArtifactOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nearbite_artifact_operations_total",
			Help: "Model artifact save/load operations by backend and outcome",
		},
		[]string{"backend", "operation", "outcome"},
	)
)

// Outcome 把 error 映射为指标标签
func Outcome(err error) string {
	if err == nil {
		return "success"
	}
	return "error"
}
