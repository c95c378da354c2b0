// Package sink defines the bulk-write boundary of the injection engine and
// provides the Elasticsearch implementation of it.
package sink

import (
	"context"

	"github.com/docstorm/docstorm/internal/docstorm/model"
)

// Sink writes batches of documents to a remote store. Each WriteBulk call
// performs exactly one network round trip carrying the full batch; the
// store decides per-document outcome.
//
// A non-nil error is returned only when the call as a whole failed and no
// per-document outcome is known; such errors are classified by
// IsConnectionError. Per-document rejections (malformed documents the store
// refuses to index) are not errors at this level: they are reported in
// BulkResult.Errors and must not trigger a retry of the batch.
type Sink interface {
	WriteBulk(ctx context.Context, collection string, documents []model.Document) (BulkResult, error)
}

// DocumentError describes one document the store rejected.
type DocumentError struct {
	// Index of the document within the submitted batch.
	Index int
	// Reason reported by the store.
	Reason string
}

// BulkResult reports the per-document outcome of one bulk call.
// Succeeded + Failed == Attempted always holds.
type BulkResult struct {
	Attempted int
	Succeeded int
	Failed    int
	Errors    []DocumentError
}
