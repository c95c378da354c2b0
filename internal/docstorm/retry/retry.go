// Package retry wraps bulk writes with bounded, constant-delay retry on
// transient failure.
package retry

import (
	"context"
	"time"

	"github.com/avast/retry-go"

	"github.com/docstorm/docstorm/internal/docstorm/model"
	"github.com/docstorm/docstorm/internal/docstorm/sink"
)

// Controller executes bulk writes against a sink, retrying the whole batch
// on connection failures. The delay between attempts is constant, not
// exponential: this is a bounded-scale load generator, not a resilience
// library, and a fixed configured delay keeps the write rate predictable.
type Controller struct {
	sink        sink.Sink
	maxAttempts uint
	delay       time.Duration
}

// NewController creates a controller performing at most maxAttempts total
// attempts per batch, waiting delay between attempts.
func NewController(s sink.Sink, maxAttempts int, delay time.Duration) *Controller {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Controller{
		sink:        s,
		maxAttempts: uint(maxAttempts),
		delay:       delay,
	}
}

// Execute writes the batch through the sink.
//
// Connection failures are retried up to the attempt budget; the retry wait
// is interruptible by ctx. Validation failures are never retried: they
// arrive inside the BulkResult of a successful call and are passed through
// unchanged. If every attempt fails, the batch is reported as fully failed
// (Attempted = len(documents), Succeeded = 0) together with the last error;
// the caller decides whether the run continues.
func (c *Controller) Execute(ctx context.Context, collection string, documents []model.Document) (sink.BulkResult, error) {
	var result sink.BulkResult

	err := retry.Do(
		func() error {
			r, err := c.sink.WriteBulk(ctx, collection, documents)
			if err != nil {
				return err
			}
			result = r
			return nil
		},
		retry.Attempts(c.maxAttempts),
		retry.Delay(c.delay),
		retry.DelayType(retry.FixedDelay),
		retry.RetryIf(sink.IsConnectionError),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)
	if err != nil {
		return sink.BulkResult{
			Attempted: len(documents),
			Failed:    len(documents),
		}, err
	}
	return result, nil
}
