package tasks

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lysyi3m/product-sync/app/importer"
	"github.com/lysyi3m/product-sync/app/sources"
)

// newTestScheduler assembles a scheduler directly so tests do not depend on
// global configuration being loaded.
func newTestScheduler(configCache *sources.ConfigCache, runner ImportRunnerInterface, interval time.Duration, workerCount int) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		configCache: configCache,
		runner:      runner,
		interval:    interval,
		workerCount: workerCount,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, 10),
		nextRuns:    make(map[string]time.Time),
	}
}

func writeSourceConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func loadedConfigCache(t *testing.T, dir string) *sources.ConfigCache {
	t.Helper()
	configCache := sources.NewConfigCache(dir)
	if err := configCache.Run(); err != nil {
		t.Fatalf("Expected no error loading configs, got: %v", err)
	}
	return configCache
}

// signalRunner reports each run on a channel so lifecycle tests can wait for
// the worker pool instead of sleeping.
type signalRunner struct {
	ran chan struct{}
}

func (r *signalRunner) Run(ctx context.Context, opts importer.RunOptions) (*importer.Summary, error) {
	select {
	case r.ran <- struct{}{}:
	default:
	}
	return &importer.Summary{}, nil
}

func TestEnqueueTask(t *testing.T) {
	scheduler := newTestScheduler(sources.NewConfigCache(t.TempDir()), &MockImportRunner{}, time.Second, 1)

	task := NewImportProductsTask(testSourceConfig(), "", scheduler.runner)
	if err := scheduler.EnqueueTask(task); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(scheduler.taskQueue) != 1 {
		t.Errorf("Expected 1 queued task, got %d", len(scheduler.taskQueue))
	}
}

func TestEnqueueTaskQueueFull(t *testing.T) {
	scheduler := newTestScheduler(sources.NewConfigCache(t.TempDir()), &MockImportRunner{}, time.Second, 1)
	scheduler.taskQueue = make(chan TaskInterface, 1)

	first := NewImportProductsTask(testSourceConfig(), "", scheduler.runner)
	if err := scheduler.EnqueueTask(first); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	second := NewImportProductsTask(testSourceConfig(), "", scheduler.runner)
	if err := scheduler.EnqueueTask(second); err == nil {
		t.Error("Expected error when queue is full")
	}
}

func TestEnqueueTaskAfterStop(t *testing.T) {
	scheduler := newTestScheduler(sources.NewConfigCache(t.TempDir()), &MockImportRunner{}, time.Second, 1)
	// No buffer and no workers: the send can never proceed, so the
	// cancelled context is the only selectable case.
	scheduler.taskQueue = make(chan TaskInterface)
	scheduler.cancel()

	task := NewImportProductsTask(testSourceConfig(), "", scheduler.runner)
	if err := scheduler.EnqueueTask(task); err == nil {
		t.Error("Expected error when scheduler is stopped")
	}
}

func TestEnqueueStartupTasksSkipsDisabledSources(t *testing.T) {
	tempDir := t.TempDir()
	writeSourceConfig(t, tempDir, "enabled.yml", `
fallback_path: "./data/enabled.csv"
settings:
  enabled: true
`)
	writeSourceConfig(t, tempDir, "disabled.yml", `
fallback_path: "./data/disabled.csv"
settings:
  enabled: false
`)

	scheduler := newTestScheduler(loadedConfigCache(t, tempDir), &MockImportRunner{}, time.Second, 1)
	scheduler.enqueueStartupTasks()

	if len(scheduler.taskQueue) != 1 {
		t.Fatalf("Expected 1 queued task, got %d", len(scheduler.taskQueue))
	}

	task := <-scheduler.taskQueue
	if task.GetSourceName() != "enabled" {
		t.Errorf("Expected task for source 'enabled', got '%s'", task.GetSourceName())
	}
}

func TestEnqueueTasksHonorsImportInterval(t *testing.T) {
	tempDir := t.TempDir()
	writeSourceConfig(t, tempDir, "supplier.yml", `
fallback_path: "./data/products.csv"
settings:
  enabled: true
  import_interval: 600
`)

	scheduler := newTestScheduler(loadedConfigCache(t, tempDir), &MockImportRunner{}, time.Second, 1)

	// First scan enqueues and records the next run time.
	scheduler.enqueueTasks()
	if len(scheduler.taskQueue) != 1 {
		t.Fatalf("Expected 1 queued task after first scan, got %d", len(scheduler.taskQueue))
	}

	// Second scan within the interval enqueues nothing.
	scheduler.enqueueTasks()
	if len(scheduler.taskQueue) != 1 {
		t.Errorf("Expected still 1 queued task within interval, got %d", len(scheduler.taskQueue))
	}

	// Expire the bookkeeping entry; the source becomes due again.
	scheduler.mu.Lock()
	scheduler.nextRuns["supplier"] = time.Now().UTC().Add(-time.Second)
	scheduler.mu.Unlock()

	scheduler.enqueueTasks()
	if len(scheduler.taskQueue) != 2 {
		t.Errorf("Expected 2 queued tasks after interval expired, got %d", len(scheduler.taskQueue))
	}
}

func TestSchedulerLifecycle(t *testing.T) {
	tempDir := t.TempDir()
	writeSourceConfig(t, tempDir, "supplier.yml", `
fallback_path: "./data/products.csv"
settings:
  enabled: true
`)

	runner := &signalRunner{ran: make(chan struct{}, 1)}
	scheduler := newTestScheduler(loadedConfigCache(t, tempDir), runner, 50*time.Millisecond, 1)

	scheduler.Start()

	// The startup pass enqueues the enabled source; a worker must pick it up.
	select {
	case <-runner.ran:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected an import run after scheduler start")
	}

	scheduler.Stop()
}
