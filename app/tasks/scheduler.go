package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/product-sync/app/cfg"
	"github.com/lysyi3m/product-sync/app/sources"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// Scheduler runs a worker pool over a task queue and enqueues an import task
// for every enabled source when it comes due. Next-run times are kept in
// memory: sources are config entries, not database rows, and a missed tick
// costs one interval at most. Import runs are idempotent, so overlapping or
// retried runs are safe.
type Scheduler struct {
	configCache *sources.ConfigCache
	runner      ImportRunnerInterface
	interval    time.Duration
	workerCount int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface
	nextRuns    map[string]time.Time
	mu          sync.Mutex
}

func NewScheduler(configCache *sources.ConfigCache, runner ImportRunnerInterface) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		configCache: configCache,
		runner:      runner,
		interval:    time.Duration(cfg.SchedulerInterval) * time.Second,
		workerCount: cfg.WorkerCount,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, 300),
		nextRuns:    make(map[string]time.Time),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()

}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueStartupTasks() {
	sourceConfigs := s.configCache.GetConfigs()
	if len(sourceConfigs) == 0 {
		slog.Debug("No source configurations found")
		return
	}

	slog.Debug("Processing source configurations", "count", len(sourceConfigs))

	now := time.Now().UTC()

	for _, sourceConfig := range sourceConfigs {
		if !sourceConfig.Settings.Enabled {
			slog.Debug("Source disabled, skipping ImportProductsTask", "source", sourceConfig.Name)
			continue
		}

		task := NewImportProductsTask(sourceConfig, "", s.runner)
		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue ImportProductsTask", "source", sourceConfig.Name, "error", err)
			continue
		}
		s.markScheduled(sourceConfig.Name, now, sourceConfig.Settings.ImportInterval)
	}
}

func (s *Scheduler) enqueueTasks() {
	sourceConfigs := s.configCache.GetEnabledConfigs()
	if len(sourceConfigs) == 0 {
		slog.Debug("No enabled source configurations found")
		return
	}

	slog.Debug("Processing enabled source configurations for task scheduling", "count", len(sourceConfigs))

	now := time.Now().UTC()

	for _, sourceConfig := range sourceConfigs {
		if !s.isDue(sourceConfig.Name, now) {
			slog.Debug("Source not due for import yet", "source", sourceConfig.Name)
			continue
		}

		task := NewImportProductsTask(sourceConfig, "", s.runner)
		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue ImportProductsTask", "source", sourceConfig.Name, "error", err)
			continue
		}
		s.markScheduled(sourceConfig.Name, now, sourceConfig.Settings.ImportInterval)
	}
}

func (s *Scheduler) isDue(sourceName string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	nextRun, ok := s.nextRuns[sourceName]
	return !ok || !nextRun.After(now)
}

func (s *Scheduler) markScheduled(sourceName string, now time.Time, intervalSeconds int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextRuns[sourceName] = now.Add(time.Duration(intervalSeconds) * time.Second)
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "source", task.GetSourceName(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			go func() {
				time.Sleep(retryDelay)
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				default:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
