// Package generator produces synthetic documents for injection. Producers
// are pure: they perform no I/O and can only fail at construction time,
// never while generating.
package generator

import (
	"math/rand"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/docstorm/docstorm/internal/docstorm/configuration"
	"github.com/docstorm/docstorm/internal/docstorm/model"
)

// Producer generates documents of one type. Implementations are
// deterministic modulo their random source.
type Producer interface {
	GenerateOne() model.Document
	GenerateBatch(n int) []model.Document
}

// Registry maps each document type to its constructed producer.
type Registry map[configuration.DocumentType]Producer

// NewRegistry constructs a producer for every enabled stream. Construction
// failures (e.g. an unparsable custom template) are aggregated and returned
// together; a non-nil error means the run must not start.
func NewRegistry(config configuration.Config, rnd *rand.Rand) (Registry, error) {
	registry := Registry{}
	var result *multierror.Error

	if config.Logs.Enabled {
		registry[configuration.DocumentTypeLogs] = NewLogsProducer(config.Logs, rnd)
	}
	if config.Metrics.Enabled {
		registry[configuration.DocumentTypeMetrics] = NewMetricsProducer(config.Metrics, rnd)
	}
	if config.Custom.Enabled {
		producer, err := NewCustomProducer(config.Custom, rnd)
		if err != nil {
			result = multierror.Append(result, errors.Wrap(err, "building custom producer"))
		} else {
			registry[configuration.DocumentTypeCustom] = producer
		}
	}

	return registry, result.ErrorOrNil()
}

func generateBatch(p Producer, n int) []model.Document {
	documents := make([]model.Document, n)
	for i := range documents {
		documents[i] = p.GenerateOne()
	}
	return documents
}
