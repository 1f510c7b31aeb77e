package importer

import "errors"

// Fatal import errors. Row-level validation failures are not errors; they
// are counted in the run summary and the run continues.
var (
	// ErrSourceUnavailable means both the remote fetch and the local
	// fallback failed. Nothing was read.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrSchema means a required canonical column has no matching alias
	// in the source header. The batch is rejected before row processing.
	ErrSchema = errors.New("schema error")

	// ErrStoreCommit means the reconcile transaction failed. The commit is
	// atomic, so no rows from the run are visible.
	ErrStoreCommit = errors.New("store commit failed")
)
