package api

import (
	"github.com/lysyi3m/product-sync/app/cache"
	"github.com/lysyi3m/product-sync/app/database"
	"github.com/lysyi3m/product-sync/app/sources"
	"github.com/lysyi3m/product-sync/app/tasks"
)

// defaultPageSize matches the store's pagination default; the API does not
// let clients raise it.
const defaultPageSize = 20

type Handler struct {
	productRepo database.ProductRepository
	configCache *sources.ConfigCache
	cache       cache.CacheInterface
	runner      tasks.ImportRunnerInterface
	scheduler   tasks.TaskSchedulerInterface
}
