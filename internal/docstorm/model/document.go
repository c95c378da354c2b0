package model

// Document is a single JSON-like document to be indexed. Documents are
// immutable once produced; ownership transfers from the producer to the
// sink, and no component mutates a document after handing it off.
type Document map[string]any
