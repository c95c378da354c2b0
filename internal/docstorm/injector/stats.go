package injector

import (
	"sync"
	"time"

	"github.com/docstorm/docstorm/internal/docstorm/configuration"
	"github.com/docstorm/docstorm/internal/docstorm/sink"
)

// TargetStats is the cumulative outcome for one document stream.
type TargetStats struct {
	Documents     int
	Batches       int
	Errors        int
	FailedBatches int
}

// Snapshot is a point-in-time copy of the run statistics. It is safe to
// retain; it shares no state with the live counters. Elapsed is fixed at
// the moment the snapshot is taken (or when the run finished, whichever
// came first), so a retained final snapshot keeps reporting the same rate.
type Snapshot struct {
	TotalDocuments int
	TotalBatches   int
	TotalErrors    int
	FailedBatches  int
	StartedAt      time.Time
	Elapsed        time.Duration
	Targets        map[configuration.DocumentType]TargetStats
}

// Rate returns documents per second over the snapshot's elapsed time.
func (s Snapshot) Rate() float64 {
	seconds := s.Elapsed.Seconds()
	if seconds <= 0 {
		return 0
	}
	return float64(s.TotalDocuments) / seconds
}

// RunStats accumulates results over a run. All counters for one batch are
// updated under a single lock, so a reader never observes the batch count
// incremented without the matching document count.
type RunStats struct {
	mu             sync.Mutex
	startedAt      time.Time
	finishedAt     time.Time
	totalDocuments int
	totalBatches   int
	totalErrors    int
	failedBatches  int
	targets        map[configuration.DocumentType]TargetStats
}

func NewRunStats() *RunStats {
	return &RunStats{targets: map[configuration.DocumentType]TargetStats{}}
}

// Start records the beginning of the run. Called once, before any batch.
func (s *RunStats) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startedAt = time.Now()
	s.finishedAt = time.Time{}
}

// Finish records the end of the run. Snapshots taken afterwards report
// the elapsed time of the run, not of the caller's clock.
func (s *RunStats) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finishedAt = time.Now()
}

// RecordBatch merges one completed bulk operation into the totals. Stats
// are updated only after a BulkResult is received, never before.
func (s *RunStats) RecordBatch(target configuration.DocumentType, result sink.BulkResult, batchFailed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalDocuments += result.Attempted
	s.totalBatches++
	s.totalErrors += result.Failed
	if batchFailed {
		s.failedBatches++
	}

	targetStats := s.targets[target]
	targetStats.Documents += result.Attempted
	targetStats.Batches++
	targetStats.Errors += result.Failed
	if batchFailed {
		targetStats.FailedBatches++
	}
	s.targets[target] = targetStats
}

// Snapshot returns a consistent copy of the counters. Safe to call from
// any goroutine at any time.
func (s *RunStats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	targets := make(map[configuration.DocumentType]TargetStats, len(s.targets))
	for target, stats := range s.targets {
		targets[target] = stats
	}
	return Snapshot{
		TotalDocuments: s.totalDocuments,
		TotalBatches:   s.totalBatches,
		TotalErrors:    s.totalErrors,
		FailedBatches:  s.failedBatches,
		StartedAt:      s.startedAt,
		Elapsed:        s.elapsed(),
		Targets:        targets,
	}
}

func (s *RunStats) elapsed() time.Duration {
	if s.startedAt.IsZero() {
		return 0
	}
	end := s.finishedAt
	if end.IsZero() {
		end = time.Now()
	}
	return end.Sub(s.startedAt)
}
