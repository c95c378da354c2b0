package injector

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/docstorm/docstorm/internal/docstorm/configuration"
	"github.com/docstorm/docstorm/internal/docstorm/sink"
)

var (
	documentsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docstorm_documents_total",
			Help: "Number of documents submitted, by target and outcome.",
		},
		[]string{"target", "outcome"},
	)
	batchesCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docstorm_batches_total",
			Help: "Number of bulk operations performed, by target.",
		},
		[]string{"target"},
	)
	failedBatchesCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docstorm_failed_batches_total",
			Help: "Number of bulk operations that failed after exhausting retries, by target.",
		},
		[]string{"target"},
	)
)

func observeBatch(target configuration.DocumentType, result sink.BulkResult, batchFailed bool) {
	name := string(target)
	documentsCounter.WithLabelValues(name, "succeeded").Add(float64(result.Succeeded))
	documentsCounter.WithLabelValues(name, "failed").Add(float64(result.Failed))
	batchesCounter.WithLabelValues(name).Inc()
	if batchFailed {
		failedBatchesCounter.WithLabelValues(name).Inc()
	}
}
