// Package injector contains the run controller: it owns the
// one-shot/continuous decision, drives one batch scheduler per enabled
// target in a round-robin cycle, and accumulates run statistics.
package injector

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/docstorm/docstorm/internal/docstorm/configuration"
	"github.com/docstorm/docstorm/internal/docstorm/generator"
	"github.com/docstorm/docstorm/internal/docstorm/retry"
	"github.com/docstorm/docstorm/internal/docstorm/scheduler"
	"github.com/docstorm/docstorm/internal/docstorm/sink"
)

const progressInterval = 10 * time.Second

// Injector turns the configured document streams into a sustained bulk
// write workload. Construct it with New; all construction failures happen
// before any batch is scheduled.
type Injector struct {
	config     configuration.Config
	registry   generator.Registry
	writer     *retry.Controller
	schedulers []*scheduler.Scheduler
	stats      *RunStats
}

// New validates the configuration and builds one scheduler per enabled
// target. A finite overall workload is divided evenly across the enabled
// targets (the first targets absorb the remainder), so the run consumes
// exactly the requested number of document slots.
func New(config configuration.Config, s sink.Sink, registry generator.Registry) (*Injector, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	targets := config.EnabledTargets()
	writer := retry.NewController(s, config.Injection.MaxAttempts, config.Injection.RetryDelay)
	budgets := splitBudget(config.Injection, len(targets))

	var construction *multierror.Error
	schedulers := make([]*scheduler.Scheduler, 0, len(targets))
	for i, target := range targets {
		producer, ok := registry[target.Type]
		if !ok {
			construction = multierror.Append(construction,
				errors.Errorf("no producer registered for document type %q", target.Type))
			continue
		}
		schedulers = append(schedulers, scheduler.New(
			target,
			producer,
			writer,
			config.Injection.BatchSize,
			config.Injection.Interval,
			budgets[i],
		))
	}
	if err := construction.ErrorOrNil(); err != nil {
		return nil, err
	}

	return &Injector{
		config:     config,
		registry:   registry,
		writer:     writer,
		schedulers: schedulers,
		stats:      NewRunStats(),
	}, nil
}

// splitBudget divides the overall document workload across targets.
// Unbounded (continuous mode, or no total configured) gives every target
// an unbounded budget.
func splitBudget(config configuration.InjectionConfig, targets int) []int {
	budgets := make([]int, targets)
	if config.Continuous || config.TotalDocuments == 0 {
		for i := range budgets {
			budgets[i] = scheduler.Unbounded
		}
		return budgets
	}
	base := config.TotalDocuments / targets
	remainder := config.TotalDocuments % targets
	for i := range budgets {
		budgets[i] = base
		if i < remainder {
			budgets[i]++
		}
	}
	return budgets
}

// Run drives the round-robin cycle until every scheduler is done or the
// context is cancelled. On cancellation the in-flight batch finishes its
// bulk call; no new batches start. The returned snapshot is final and
// internally consistent either way. Per-batch failures are absorbed into
// the statistics and never abort the run.
func (i *Injector) Run(ctx context.Context) Snapshot {
	i.stats.Start()
	log.WithFields(log.Fields{
		"targets":    len(i.schedulers),
		"batchSize":  i.config.Injection.BatchSize,
		"interval":   i.config.Injection.Interval,
		"continuous": i.config.Injection.Continuous,
		"total":      i.config.Injection.TotalDocuments,
	}).Info("Starting injection run")

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		i.logProgress(stop)
	}()

	for {
		idle := true
		for _, s := range i.schedulers {
			if s.Done() {
				continue
			}
			idle = false
			result, err := s.RunOnce(ctx)
			if result != nil {
				batchFailed := err != nil
				i.stats.RecordBatch(s.Target().Type, *result, batchFailed)
				observeBatch(s.Target().Type, *result, batchFailed)
			}
			if err != nil && ctx.Err() == nil {
				log.WithError(err).Warnf("Bulk write to %q failed", s.Target().Collection)
			}
		}
		if idle {
			break
		}
	}

	close(stop)
	wg.Wait()

	i.stats.Finish()
	snapshot := i.stats.Snapshot()
	log.WithFields(log.Fields{
		"documents": snapshot.TotalDocuments,
		"batches":   snapshot.TotalBatches,
		"errors":    snapshot.TotalErrors,
		"elapsed":   snapshot.Elapsed.Round(time.Millisecond),
		"rate":      snapshot.Rate(),
	}).Info("Injection run complete")
	return snapshot
}

// InjectBatch performs one ad-hoc batch for the given document type,
// bypassing pacing but still passing through the retry controller. It
// returns the per-document success and failure counts.
func (i *Injector) InjectBatch(ctx context.Context, docType configuration.DocumentType, size int) (int, int, error) {
	producer, ok := i.registry[docType]
	if !ok {
		return 0, 0, errors.Errorf("no producer registered for document type %q", docType)
	}
	collection := ""
	for _, target := range i.config.EnabledTargets() {
		if target.Type == docType {
			collection = target.Collection
		}
	}
	if collection == "" {
		return 0, 0, errors.Errorf("document type %q is not enabled", docType)
	}

	documents := producer.GenerateBatch(size)
	result, err := i.writer.Execute(ctx, collection, documents)
	batchFailed := err != nil
	i.stats.RecordBatch(docType, result, batchFailed)
	observeBatch(docType, result, batchFailed)
	return result.Succeeded, result.Failed, err
}

// Stats returns a snapshot of the cumulative statistics. Safe to call
// concurrently with a running injection.
func (i *Injector) Stats() Snapshot {
	return i.stats.Snapshot()
}

func (i *Injector) logProgress(stop <-chan struct{}) {
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			snapshot := i.stats.Snapshot()
			log.WithFields(log.Fields{
				"documents": snapshot.TotalDocuments,
				"batches":   snapshot.TotalBatches,
				"errors":    snapshot.TotalErrors,
				"rate":      snapshot.Rate(),
			}).Info("Injection progress")
		}
	}
}
