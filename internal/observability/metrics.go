package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	httpRequestsTotal     *prometheus.CounterVec
	httpLatencySeconds    *prometheus.HistogramVec
	httpErrorsTotal       *prometheus.CounterVec
	promptResolutions     *prometheus.CounterVec
	submissionOutcomes    *prometheus.CounterVec
	scoreAnomalies        *prometheus.CounterVec
	batchSizes            prometheus.Histogram
	historyWriteFailures  *prometheus.CounterVec
	workbookExportLatency prometheus.Histogram
)

// RegisterMetrics initialises the Prometheus collectors used by the grading service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grader_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "grader_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grader_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		promptResolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grader_prompt_resolutions_total",
			Help: "Grading prompts resolved, by source (synthesized or fallback).",
		}, []string{"source"})

		submissionOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grader_submission_outcomes_total",
			Help: "Per-submission grading outcomes (graded, transport, timeout, parse, cancelled).",
		}, []string{"outcome"})

		scoreAnomalies = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grader_score_anomalies_total",
			Help: "Out-of-range values reported by the model, by kind.",
		}, []string{"kind"})

		batchSizes = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "grader_batch_submissions",
			Help:    "Number of submissions per grading batch.",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 50},
		})

		historyWriteFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grader_history_write_failures_total",
			Help: "History entries that could not be stored, by store.",
		}, []string{"store"})

		workbookExportLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "grader_workbook_export_seconds",
			Help:    "Time spent rendering result workbooks.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			promptResolutions,
			submissionOutcomes,
			scoreAnomalies,
			batchSizes,
			historyWriteFailures,
			workbookExportLatency,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// PromptResolutions exposes the counter of resolved grading prompts.
func PromptResolutions() *prometheus.CounterVec {
	RegisterMetrics()
	return promptResolutions
}

// SubmissionOutcomes exposes the per-submission outcome counter.
func SubmissionOutcomes() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionOutcomes
}

// ScoreAnomalies exposes the counter of flagged model values.
func ScoreAnomalies() *prometheus.CounterVec {
	RegisterMetrics()
	return scoreAnomalies
}

// BatchSizes exposes the batch size histogram.
func BatchSizes() prometheus.Histogram {
	RegisterMetrics()
	return batchSizes
}

// HistoryWriteFailures exposes the history write failure counter.
func HistoryWriteFailures() *prometheus.CounterVec {
	RegisterMetrics()
	return historyWriteFailures
}

// WorkbookExportLatency exposes the workbook render histogram.
func WorkbookExportLatency() prometheus.Histogram {
	RegisterMetrics()
	return workbookExportLatency
}
