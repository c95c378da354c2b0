package injector

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docstorm/docstorm/internal/docstorm/configuration"
	"github.com/docstorm/docstorm/internal/docstorm/generator"
	"github.com/docstorm/docstorm/internal/docstorm/model"
	"github.com/docstorm/docstorm/internal/docstorm/sink"
)

type stubProducer struct{}

func (stubProducer) GenerateOne() model.Document {
	return model.Document{"k": "v"}
}

func (p stubProducer) GenerateBatch(n int) []model.Document {
	documents := make([]model.Document, n)
	for i := range documents {
		documents[i] = p.GenerateOne()
	}
	return documents
}

func stubRegistry() generator.Registry {
	return generator.Registry{
		configuration.DocumentTypeLogs:    stubProducer{},
		configuration.DocumentTypeMetrics: stubProducer{},
		configuration.DocumentTypeCustom:  stubProducer{},
	}
}

type call struct {
	collection string
	size       int
}

// countingSink accepts every document and records each bulk call.
type countingSink struct {
	mu    sync.Mutex
	calls []call
}

func (s *countingSink) WriteBulk(ctx context.Context, collection string, documents []model.Document) (sink.BulkResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call{collection: collection, size: len(documents)})
	return sink.BulkResult{Attempted: len(documents), Succeeded: len(documents)}, nil
}

func (s *countingSink) recorded() []call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]call(nil), s.calls...)
}

// downSink fails every call with a connection error.
type downSink struct {
	mu    sync.Mutex
	calls int
}

func (s *downSink) WriteBulk(ctx context.Context, collection string, documents []model.Document) (sink.BulkResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return sink.BulkResult{}, &sink.ConnectionError{Err: context.DeadlineExceeded}
}

func testConfig(modify func(*configuration.Config)) configuration.Config {
	config := configuration.Default()
	config.Metrics.Enabled = false
	config.Injection.Interval = 0
	config.Injection.RetryDelay = 0
	if modify != nil {
		modify(&config)
	}
	return config
}

func TestNew_InvalidConfigurationFails(t *testing.T) {
	config := testConfig(func(c *configuration.Config) {
		c.Injection.BatchSize = 0
	})
	_, err := New(config, &countingSink{}, stubRegistry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestNew_MissingProducerFails(t *testing.T) {
	config := testConfig(nil)
	_, err := New(config, &countingSink{}, generator.Registry{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no producer registered for document type "logs"`)
}

func TestRun_FiniteRunInjectsExactly(t *testing.T) {
	s := &countingSink{}
	config := testConfig(func(c *configuration.Config) {
		c.Injection.BatchSize = 10
		c.Injection.TotalDocuments = 95
	})
	inj, err := New(config, s, stubRegistry())
	require.NoError(t, err)

	snapshot := inj.Run(context.Background())

	assert.Equal(t, 95, snapshot.TotalDocuments)
	// ceil(95/10) batches, the last one short.
	assert.Equal(t, 10, snapshot.TotalBatches)
	assert.Equal(t, 0, snapshot.TotalErrors)
	require.Len(t, s.recorded(), 10)
	assert.Equal(t, 5, s.recorded()[9].size)
}

func TestRun_RoundRobinFairness(t *testing.T) {
	s := &countingSink{}
	config := testConfig(func(c *configuration.Config) {
		c.Metrics.Enabled = true
		c.Injection.BatchSize = 10
		c.Injection.TotalDocuments = 80
	})
	inj, err := New(config, s, stubRegistry())
	require.NoError(t, err)

	snapshot := inj.Run(context.Background())

	assert.Equal(t, 80, snapshot.TotalDocuments)
	logs := snapshot.Targets[configuration.DocumentTypeLogs]
	metrics := snapshot.Targets[configuration.DocumentTypeMetrics]
	assert.Equal(t, 4, logs.Batches)
	assert.Equal(t, 4, metrics.Batches)
	assert.Equal(t, 40, logs.Documents)
	assert.Equal(t, 40, metrics.Documents)

	// Strict alternation: one batch per target per cycle.
	calls := s.recorded()
	require.Len(t, calls, 8)
	for i, c := range calls {
		if i%2 == 0 {
			assert.Equal(t, "logs", c.collection)
		} else {
			assert.Equal(t, "metrics", c.collection)
		}
	}
}

func TestRun_UnreachableStoreDoesNotAbortRun(t *testing.T) {
	s := &downSink{}
	config := testConfig(func(c *configuration.Config) {
		c.Injection.BatchSize = 10
		c.Injection.TotalDocuments = 30
		c.Injection.MaxAttempts = 3
	})
	inj, err := New(config, s, stubRegistry())
	require.NoError(t, err)

	snapshot := inj.Run(context.Background())

	// Every batch exhausts its attempt budget, is recorded as failed, and
	// the run carries on to completion.
	assert.Equal(t, 30, snapshot.TotalDocuments)
	assert.Equal(t, 3, snapshot.TotalBatches)
	assert.Equal(t, 30, snapshot.TotalErrors)
	assert.Equal(t, 3, snapshot.FailedBatches)
	assert.Equal(t, 9, s.calls)
}

func TestRun_CancellationLeavesConsistentStats(t *testing.T) {
	s := &countingSink{}
	config := testConfig(func(c *configuration.Config) {
		c.Injection.BatchSize = 5
		c.Injection.Continuous = true
		c.Injection.Interval = 2 * time.Millisecond
	})
	inj, err := New(config, s, stubRegistry())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	snapshot := inj.Run(ctx)

	calls := s.recorded()
	assert.Greater(t, snapshot.TotalBatches, 0)
	assert.Equal(t, len(calls), snapshot.TotalBatches)

	total := 0
	for _, c := range calls {
		total += c.size
	}
	assert.Equal(t, total, snapshot.TotalDocuments)
}

func TestStats_ReadableWhileRunning(t *testing.T) {
	s := &countingSink{}
	config := testConfig(func(c *configuration.Config) {
		c.Injection.BatchSize = 5
		c.Injection.Continuous = true
	})
	inj, err := New(config, s, stubRegistry())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan Snapshot, 1)
	go func() {
		done <- inj.Run(ctx)
	}()

	deadline := time.After(50 * time.Millisecond)
	for {
		select {
		case <-deadline:
			cancel()
			final := <-done
			assert.Greater(t, final.TotalDocuments, 0)
			return
		default:
			snapshot := inj.Stats()
			// Counters move together: an observed batch always carries
			// its documents.
			if snapshot.TotalBatches > 0 {
				assert.Equal(t, snapshot.TotalBatches*5, snapshot.TotalDocuments)
			}
		}
	}
}

func TestInjectBatch(t *testing.T) {
	s := &countingSink{}
	config := testConfig(nil)
	inj, err := New(config, s, stubRegistry())
	require.NoError(t, err)

	succeeded, failed, err := inj.InjectBatch(context.Background(), configuration.DocumentTypeLogs, 25)
	require.NoError(t, err)
	assert.Equal(t, 25, succeeded)
	assert.Equal(t, 0, failed)

	// A second call produces an independent result.
	succeeded, failed, err = inj.InjectBatch(context.Background(), configuration.DocumentTypeLogs, 25)
	require.NoError(t, err)
	assert.Equal(t, 25, succeeded)
	assert.Equal(t, 0, failed)

	snapshot := inj.Stats()
	assert.Equal(t, 50, snapshot.TotalDocuments)
	assert.Equal(t, 2, snapshot.TotalBatches)

	calls := s.recorded()
	require.Len(t, calls, 2)
	assert.Equal(t, calls[0], calls[1])
}

func TestInjectBatch_UnknownType(t *testing.T) {
	config := testConfig(nil)
	inj, err := New(config, &countingSink{}, stubRegistry())
	require.NoError(t, err)

	_, _, err = inj.InjectBatch(context.Background(), configuration.DocumentTypeMetrics, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not enabled")
}

func TestSplitBudget(t *testing.T) {
	config := configuration.Default().Injection

	config.TotalDocuments = 10
	assert.Equal(t, []int{4, 3, 3}, splitBudget(config, 3))

	config.TotalDocuments = 9
	assert.Equal(t, []int{3, 3, 3}, splitBudget(config, 3))

	config.TotalDocuments = 0
	assert.Equal(t, []int{-1, -1}, splitBudget(config, 2))

	config.TotalDocuments = 100
	config.Continuous = true
	assert.Equal(t, []int{-1}, splitBudget(config, 1))
}
