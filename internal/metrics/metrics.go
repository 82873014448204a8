// Package metrics registers the Prometheus collectors shared by the
// pipelines and the HTTP service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	PipelineAbstract = "abstract"
	PipelinePodcast  = "podcast"

	OutcomeSuccess = "success"
	OutcomePartial = "partial"
	OutcomeFailure = "failure"
)

var (
	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "papercast_pipeline_runs_total",
			Help: "Total number of pipeline runs by outcome",
		},
		[]string{"pipeline", "outcome"},
	)

	StageFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "papercast_stage_failures_total",
			Help: "Total number of failed pipeline stages",
		},
		[]string{"pipeline", "stage"},
	)

	TTSLines = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "papercast_tts_lines_total",
			Help: "Total number of dialogue lines sent to speech synthesis",
		},
		[]string{"outcome"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "papercast_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"pipeline", "stage"},
	)
)

// ObserveStage records the time elapsed since start for a stage.
func ObserveStage(pipeline, stage string, start time.Time) {
	StageDuration.WithLabelValues(pipeline, stage).Observe(time.Since(start).Seconds())
}

// RecordLine counts one synthesized or skipped dialogue line.
func RecordLine(ok bool) {
	if ok {
		TTSLines.WithLabelValues(OutcomeSuccess).Inc()
		return
	}
	TTSLines.WithLabelValues(OutcomeFailure).Inc()
}
