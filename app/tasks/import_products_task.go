package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/product-sync/app/importer"
	"github.com/lysyi3m/product-sync/app/sources"
)

// ImportProductsTask wraps one import run for one source. The attempt number
// passed to the runner is the retry count plus one, so log lines from retried
// runs correlate with the scheduler's retry bookkeeping. The source's enabled
// flag gates scheduling only; a manually enqueued task always runs.
type ImportProductsTask struct {
	Task
	SourceConfig *sources.Config
	urlOverride  string
	runner       ImportRunnerInterface
}

func NewImportProductsTask(sourceConfig *sources.Config, urlOverride string, runner ImportRunnerInterface) *ImportProductsTask {
	return &ImportProductsTask{
		Task:         NewTask(TaskTypeImportProducts, sourceConfig.Name),
		SourceConfig: sourceConfig,
		urlOverride:  urlOverride,
		runner:       runner,
	}
}

func (t *ImportProductsTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	opts := importer.RunOptions{
		Source:       t.SourceConfig.Name,
		URL:          t.SourceConfig.URL,
		FallbackPath: t.SourceConfig.FallbackPath,
		Timeout:      time.Duration(t.SourceConfig.Settings.Timeout) * time.Second,
		Attempt:      t.RetryCount + 1,
	}
	if t.urlOverride != "" {
		opts.URL = t.urlOverride
	}

	summary, err := t.runner.Run(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to import products: %w", err)
	}

	slog.Info("Task completed",
		"type", "ImportProducts",
		"source", t.SourceName,
		"duration", t.GetDuration(),
		"created", summary.Created,
		"updated", summary.Updated,
		"skipped", summary.Skipped,
		"errors", summary.Errors,
		"total_processed", summary.TotalProcessed)

	return nil
}
