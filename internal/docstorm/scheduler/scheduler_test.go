package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docstorm/docstorm/internal/docstorm/configuration"
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

// recordingWriter records batch sizes and reports every document as
// attempted, with a configurable number of failures per batch.
type recordingWriter struct {
	batchSizes    []int
	failPerBatch  int
	errToReturn   error
	failBatchFull bool
}

func (w *recordingWriter) Execute(ctx context.Context, collection string, documents []model.Document) (sink.BulkResult, error) {
	w.batchSizes = append(w.batchSizes, len(documents))
	if w.failBatchFull {
		return sink.BulkResult{Attempted: len(documents), Failed: len(documents)}, w.errToReturn
	}
	failed := w.failPerBatch
	if failed > len(documents) {
		failed = len(documents)
	}
	return sink.BulkResult{
		Attempted: len(documents),
		Succeeded: len(documents) - failed,
		Failed:    failed,
	}, nil
}

func testTarget() configuration.InjectionTarget {
	return configuration.InjectionTarget{
		Type:       configuration.DocumentTypeLogs,
		Collection: "logs",
		Enabled:    true,
	}
}

func drain(t *testing.T, s *Scheduler) []sink.BulkResult {
	t.Helper()
	var results []sink.BulkResult
	for !s.Done() {
		result, err := s.RunOnce(context.Background())
		require.NoError(t, err)
		if result != nil {
			results = append(results, *result)
		}
	}
	return results
}

func TestScheduler_FiniteRunConsumesExactBudget(t *testing.T) {
	writer := &recordingWriter{}
	s := New(testTarget(), stubProducer{}, writer, 10, 0, 25)

	results := drain(t, s)

	// ceil(25/10) batches, the last one short.
	assert.Equal(t, []int{10, 10, 5}, writer.batchSizes)
	require.Len(t, results, 3)

	total := 0
	for _, r := range results {
		total += r.Attempted
	}
	assert.Equal(t, 25, total)
	assert.Equal(t, 0, s.Remaining())
	assert.Equal(t, StateDone, s.State())
}

func TestScheduler_BatchSizeLargerThanBudget(t *testing.T) {
	writer := &recordingWriter{}
	s := New(testTarget(), stubProducer{}, writer, 100, 0, 7)

	drain(t, s)
	assert.Equal(t, []int{7}, writer.batchSizes)
}

func TestScheduler_FailedDocumentsConsumeSlots(t *testing.T) {
	// 2 documents of every 10 fail permanently; they are not re-generated,
	// so the run still terminates after exactly ceil(20/10) batches.
	writer := &recordingWriter{failPerBatch: 2}
	s := New(testTarget(), stubProducer{}, writer, 10, 0, 20)

	results := drain(t, s)
	require.Len(t, results, 2)
	assert.Equal(t, 0, s.Remaining())

	succeeded := 0
	for _, r := range results {
		succeeded += r.Succeeded
	}
	assert.Equal(t, 16, succeeded)
}

func TestScheduler_FullyFailedBatchStillConsumesSlots(t *testing.T) {
	writer := &recordingWriter{
		failBatchFull: true,
		errToReturn:   &sink.ConnectionError{Err: context.DeadlineExceeded},
	}
	s := New(testTarget(), stubProducer{}, writer, 10, 0, 10)

	result, err := s.RunOnce(context.Background())
	require.Error(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 10, result.Failed)
	assert.True(t, s.Done())
}

func TestScheduler_ZeroBudgetIsDoneImmediately(t *testing.T) {
	s := New(testTarget(), stubProducer{}, &recordingWriter{}, 10, 0, 0)
	assert.True(t, s.Done())

	result, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestScheduler_UnboundedKeepsRunning(t *testing.T) {
	writer := &recordingWriter{}
	s := New(testTarget(), stubProducer{}, writer, 5, 0, Unbounded)

	for i := 0; i < 20; i++ {
		result, err := s.RunOnce(context.Background())
		require.NoError(t, err)
		require.NotNil(t, result)
	}
	assert.False(t, s.Done())
	assert.Equal(t, Unbounded, s.Remaining())
	assert.Len(t, writer.batchSizes, 20)
}

func TestScheduler_CancellationDuringPauseStopsNewBatches(t *testing.T) {
	writer := &recordingWriter{}
	s := New(testTarget(), stubProducer{}, writer, 5, time.Hour, Unbounded)

	ctx, cancel := context.WithCancel(context.Background())

	// First batch fires immediately.
	result, err := s.RunOnce(ctx)
	require.NoError(t, err)
	require.NotNil(t, result)

	// Second call pauses for the interval; cancel while it waits.
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	result, err = s.RunOnce(ctx)
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, s.Done())
	assert.Len(t, writer.batchSizes, 1)
}

func TestScheduler_CancellationBeforeProducing(t *testing.T) {
	writer := &recordingWriter{}
	s := New(testTarget(), stubProducer{}, writer, 5, 0, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := s.RunOnce(ctx)
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.True(t, s.Done())
	assert.Empty(t, writer.batchSizes)
}

func TestScheduler_PacingMeasuredFromBatchStart(t *testing.T) {
	writer := &recordingWriter{}
	interval := 50 * time.Millisecond
	s := New(testTarget(), stubProducer{}, writer, 2, interval, 6)

	start := time.Now()
	drain(t, s)
	elapsed := time.Since(start)

	// Three batches: the first fires immediately, the remaining two are
	// paced one interval apart.
	assert.GreaterOrEqual(t, elapsed, 2*interval)
	assert.Less(t, elapsed, 6*interval)
}
