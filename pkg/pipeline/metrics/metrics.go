package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Stage labels
const (
	StageInput   = "input"
	StageAnalyze = "analyze"
	StageExtract = "extract"
	StageEnrich  = "enrich"
	StagePersist = "persist"
)

var (
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "docpipe_stage_duration_seconds",
			Help: "Time spent in each pipeline stage",
		},
		[]string{"stage"},
	)

	StageFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docpipe_stage_failures_total",
			Help: "Number of stage failures",
		},
		[]string{"stage"},
	)

	DocumentsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docpipe_documents_processed_total",
			Help: "Total number of documents processed",
		},
		[]string{"status"},
	)

	KeyValuePairsExtracted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docpipe_key_value_pairs_extracted_total",
		Help: "Number of key/value pairs extracted from documents",
	})

	EntitiesDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docpipe_entities_detected_total",
			Help: "Number of entities detected",
		},
		[]string{"entity_type"},
	)

	Invocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docpipe_invocations_total",
			Help: "Number of pipeline invocations by status code",
		},
		[]string{"status_code"},
	)
)

// Timer observes a stage duration when ObserveDuration is called
func Timer(stage string) *prometheus.Timer {
	return prometheus.NewTimer(StageDuration.WithLabelValues(stage))
}
