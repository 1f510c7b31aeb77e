package importer

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/lysyi3m/product-sync/app/cache"
)

// Coordinator sequences one import run: fetch, normalize, clean, identify,
// reconcile, then aggregate cache invalidation. It performs no retries;
// retry policy belongs to the caller.
type Coordinator struct {
	fetcher    *Fetcher
	normalizer *Normalizer
	cleaner    *Cleaner
	assigner   *IdentityAssigner
	reconciler *Reconciler
	cache      AggregateCache
}

func NewCoordinator(store ProductStore, aggregateCache AggregateCache,
	httpClient *http.Client, userAgent string) *Coordinator {
	return &Coordinator{
		fetcher:    NewFetcher(httpClient, userAgent),
		normalizer: NewNormalizer(),
		cleaner:    NewCleaner(),
		assigner:   NewIdentityAssigner(),
		reconciler: NewReconciler(store),
		cache:      aggregateCache,
	}
}

// Run executes one import attempt. A fatal error (source unavailable, schema
// error, commit failure) aborts the run with the store untouched and the
// cache left alone; otherwise the aggregate cache entry is deleted and the
// run summary is returned.
func (c *Coordinator) Run(ctx context.Context, opts RunOptions) (*Summary, error) {
	runStart := time.Now().UTC().Truncate(time.Microsecond)

	slog.Info("Import started", "source", opts.Source, "attempt", opts.Attempt, "url", opts.URL)

	table, err := c.fetcher.Run(ctx, opts.URL, opts.FallbackPath, opts.Timeout)
	if err != nil {
		return nil, err
	}

	canonical, err := c.normalizer.Run(table)
	if err != nil {
		return nil, err
	}

	validRows, cleanStats := c.cleaner.Run(canonical, runStart)
	identified := c.assigner.Run(validRows)

	created, updated, unchanged, err := c.reconciler.Run(identified)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Created:        created,
		Updated:        updated,
		Skipped:        cleanStats.Skipped,
		Errors:         cleanStats.Errors,
		TotalProcessed: len(table.Records),
	}

	// Invalidation failure does not fail the run: the commit is already
	// durable and staleness is bounded by the cache TTL.
	if err := c.cache.Delete(cache.AvgPriceByCategoryKey); err != nil {
		slog.Warn("Failed to invalidate aggregate cache", "source", opts.Source, "attempt", opts.Attempt, "error", err)
	}

	slog.Info("Import completed",
		"source", opts.Source,
		"attempt", opts.Attempt,
		"from", table.Source,
		"created", summary.Created,
		"updated", summary.Updated,
		"skipped", summary.Skipped,
		"errors", summary.Errors,
		"unchanged", unchanged,
		"total_processed", summary.TotalProcessed)

	return summary, nil
}
