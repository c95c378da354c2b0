// Package scheduler slices a per-target document workload into paced,
// fixed-size batches.
package scheduler

import (
	"context"
	"time"

	"github.com/docstorm/docstorm/internal/docstorm/configuration"
	"github.com/docstorm/docstorm/internal/docstorm/generator"
	"github.com/docstorm/docstorm/internal/docstorm/model"
	"github.com/docstorm/docstorm/internal/docstorm/sink"
)

// State of a scheduler: Idle -> Producing -> Writing -> Pausing and back
// to Producing, until Done.
type State int

const (
	StateIdle State = iota
	StateProducing
	StateWriting
	StatePausing
	StateDone
)

// Unbounded marks a scheduler with no document budget; it runs until
// cancelled.
const Unbounded = -1

// BatchWriter delivers one batch. Implemented by the retry controller.
type BatchWriter interface {
	Execute(ctx context.Context, collection string, documents []model.Document) (sink.BulkResult, error)
}

// Scheduler drives one injection target. It is not safe for concurrent
// use; the run controller calls it from a single goroutine.
type Scheduler struct {
	target    configuration.InjectionTarget
	producer  generator.Producer
	writer    BatchWriter
	batchSize int
	interval  time.Duration

	remaining int
	state     State
	nextFire  time.Time
}

// New creates a scheduler for one target. total is the number of document
// slots this target may consume, or Unbounded.
func New(
	target configuration.InjectionTarget,
	producer generator.Producer,
	writer BatchWriter,
	batchSize int,
	interval time.Duration,
	total int,
) *Scheduler {
	s := &Scheduler{
		target:    target,
		producer:  producer,
		writer:    writer,
		batchSize: batchSize,
		interval:  interval,
		remaining: total,
	}
	if total == 0 {
		s.state = StateDone
	}
	return s
}

func (s *Scheduler) Target() configuration.InjectionTarget { return s.target }

func (s *Scheduler) State() State { return s.state }

func (s *Scheduler) Done() bool { return s.state == StateDone }

// Remaining returns the unconsumed document budget, or Unbounded.
func (s *Scheduler) Remaining() int { return s.remaining }

// RunOnce performs one cycle: it waits out whatever remains of the pacing
// interval started by the previous batch, then produces and writes one
// batch. The wait is interruptible; cancellation observed while pausing or
// at the top of producing transitions the scheduler to Done without
// starting a new batch. A nil result means no batch was issued.
//
// The pacing interval is measured from the moment a batch starts, not from
// when its write finishes: a write that overruns the interval is followed
// immediately by the next batch, without a catch-up burst.
func (s *Scheduler) RunOnce(ctx context.Context) (*sink.BulkResult, error) {
	if s.state == StateDone {
		return nil, nil
	}

	if !s.nextFire.IsZero() {
		s.state = StatePausing
		if !s.waitUntil(ctx, s.nextFire) {
			s.state = StateDone
			return nil, nil
		}
	}

	if ctx.Err() != nil {
		s.state = StateDone
		return nil, nil
	}

	s.state = StateProducing
	start := time.Now()

	size := s.batchSize
	if s.remaining != Unbounded && s.remaining < size {
		size = s.remaining
	}
	documents := s.producer.GenerateBatch(size)

	s.state = StateWriting
	result, err := s.writer.Execute(ctx, s.target.Collection, documents)

	// A permanently failed document still consumes its slot: the budget
	// shrinks by what was attempted, not by what succeeded.
	if s.remaining != Unbounded {
		s.remaining -= result.Attempted
		if s.remaining <= 0 {
			s.state = StateDone
			return &result, err
		}
	}

	s.nextFire = start.Add(s.interval)
	s.state = StateIdle
	return &result, err
}

// waitUntil blocks until the deadline or cancellation; it returns false on
// cancellation.
func (s *Scheduler) waitUntil(ctx context.Context, deadline time.Time) bool {
	wait := time.Until(deadline)
	if wait <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
