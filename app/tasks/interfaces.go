package tasks

import (
	"context"

	"github.com/lysyi3m/product-sync/app/importer"
)

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application and the HTTP API to manage background import
// processing. This interface provides task queue management and worker pool
// control.
// Example usage:
//
//	scheduler := NewScheduler(configCache, coordinator)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewImportProductsTask(...))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// ImportRunnerInterface is the slice of the import coordinator that tasks
// depend on. Retry policy lives here, in the task layer; the runner itself
// never retries.
type ImportRunnerInterface interface {
	Run(ctx context.Context, opts importer.RunOptions) (*importer.Summary, error)
}

var _ ImportRunnerInterface = (*importer.Coordinator)(nil)
